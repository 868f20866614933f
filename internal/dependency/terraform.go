package dependency

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

var _ ports.ManifestProbe = (*TerraformProbe)(nil)

// TerraformProbe collects module sources declared in the root *.tf files.
type TerraformProbe struct{}

func NewTerraformProbe() *TerraformProbe {
	return &TerraformProbe{}
}

func (t *TerraformProbe) Name() string {
	return "terraform"
}

var moduleSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "module", LabelNames: []string{"name"}},
	},
}

func (t *TerraformProbe) Detect(ctx context.Context, root string) (*models.DependencyManifest, error) {
	files, err := filepath.Glob(filepath.Join(root, "*.tf"))
	if err != nil || len(files) == 0 {
		return nil, nil
	}
	sort.Strings(files)

	parser := hclparse.NewParser()
	deps := make(map[string]string)

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, parseError(filepath.Base(file), err)
		}

		parsed, diags := parser.ParseHCL(data, filepath.Base(file))
		if diags.HasErrors() {
			logger.Debug(ctx, "terraform file not parseable", "file", filepath.Base(file), "error", diags.Error())
			continue
		}

		content, _, diags := parsed.Body.PartialContent(moduleSchema)
		if diags.HasErrors() {
			continue
		}

		for _, block := range content.Blocks {
			attrs, _ := block.Body.JustAttributes()
			source := stringAttr(attrs, "source")
			if source == "" {
				continue
			}
			version := stringAttr(attrs, "version")
			if version == "" {
				source, version = splitRef(source)
			}
			deps[source] = version
		}
	}

	if len(deps) == 0 {
		return nil, nil
	}
	return newManifest(t.Name(), "*.tf", deps), nil
}

func stringAttr(attrs hcl.Attributes, name string) string {
	attr, ok := attrs[name]
	if !ok {
		return ""
	}
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
		return ""
	}
	return val.AsString()
}

// splitRef separates a git source from its ?ref= pin.
func splitRef(source string) (string, string) {
	idx := strings.Index(source, "?ref=")
	if idx < 0 {
		return source, ""
	}
	ref := source[idx+len("?ref="):]
	if amp := strings.Index(ref, "&"); amp >= 0 {
		ref = ref[:amp]
	}
	return source[:idx], ref
}
