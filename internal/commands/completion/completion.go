package completion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

const bashCompletionScript = `#! /bin/bash

_mateissue_bash_autocomplete() {
  if [[ "${COMP_WORDS[0]}" != "source" ]]; then
    local cur opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    local cmd_context=("${COMP_WORDS[@]:0:$COMP_CWORD}")
    opts=$( "${cmd_context[@]}" --generate-shell-completion )
    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
  fi
}

complete -o bashdefault -o default -o nospace -F _mateissue_bash_autocomplete mateissue
`

const zshCompletionScript = `#compdef mateissue

_mateissue() {
  local -a opts
  local cmd_context=("${(@)words[1,$CURRENT-1]}")
  opts=("${(@f)$("${cmd_context[@]}" --generate-shell-completion)}")
  _describe 'values' opts
}

compdef _mateissue mateissue
`

const installMarker = "# mateissue shell completion"

const installInfo = `
` + installMarker + `
if command -v mateissue >/dev/null 2>&1; then
	source <(mateissue completion %s)
fi
`

type CompletionCommand struct {
	out  io.Writer
	home func() (string, error)
}

func NewCompletionCommand() *CompletionCommand {
	return &CompletionCommand{out: os.Stdout, home: os.UserHomeDir}
}

func (c *CompletionCommand) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "completion",
		Usage: t.GetMessage("completion.usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name: "bash",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprint(c.out, bashCompletionScript)
					return err
				},
			},
			{
				Name: "zsh",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprint(c.out, zshCompletionScript)
					return err
				},
			},
			{
				Name:  "install",
				Usage: t.GetMessage("completion.install_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return c.install(t, os.Getenv("SHELL"))
				},
			},
		},
	}
}

func (c *CompletionCommand) install(t *i18n.Translations, shell string) error {
	home, err := c.home()
	if err != nil {
		return fmt.Errorf("error resolving home directory: %w", err)
	}

	var configFile, shellName string
	switch {
	case strings.Contains(shell, "zsh"):
		configFile, shellName = filepath.Join(home, ".zshrc"), "zsh"
	case strings.Contains(shell, "bash"):
		configFile, shellName = filepath.Join(home, ".bashrc"), "bash"
	default:
		return fmt.Errorf("%s", t.GetMessage("completion.error_unsupported_shell", 0, map[string]interface{}{"Shell": shell}))
	}

	existing, err := os.ReadFile(configFile)
	if err == nil && strings.Contains(string(existing), installMarker) {
		_, _ = fmt.Fprintln(c.out, t.GetMessage("completion.already_installed", 0, map[string]interface{}{"File": configFile}))
		return nil
	}

	f, err := os.OpenFile(configFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", configFile, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, installInfo, shellName); err != nil {
		return fmt.Errorf("error writing %s: %w", configFile, err)
	}

	_, _ = fmt.Fprintln(c.out, t.GetMessage("completion.installed", 0, map[string]interface{}{"File": configFile}))
	return nil
}
