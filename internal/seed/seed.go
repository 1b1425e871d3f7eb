package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/ctxutil"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/pkg/pointers"
	"github.com/yungbote/aleator-backend/internal/services"
)

//go:embed sample.yaml
var sampleYAML []byte

type yamlFile struct {
	Version   int            `yaml:"version"`
	Decisions []yamlDecision `yaml:"decisions"`
}

type yamlDecision struct {
	Title           string       `yaml:"title"`
	Kind            string       `yaml:"kind"`
	CooldownSeconds int64        `yaml:"cooldown_seconds"`
	Granularity     int          `yaml:"granularity"`
	Probability     string       `yaml:"probability"`
	YesLabel        string       `yaml:"yes_label"`
	NoLabel         string       `yaml:"no_label"`
	Choices         []yamlChoice `yaml:"choices"`
}

type yamlChoice struct {
	Name   string `yaml:"name"`
	Weight string `yaml:"weight"`
}

// Sample returns the decisions bundled with the binary.
func Sample() ([]services.CreateDecisionInput, error) {
	return Parse(strings.NewReader(string(sampleYAML)))
}

// Parse reads a fixture file into create requests. Odds are quoted strings so
// they keep their exact decimal value.
func Parse(r io.Reader) ([]services.CreateDecisionInput, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("unsupported seed file version %d", f.Version)
	}
	out := make([]services.CreateDecisionInput, 0, len(f.Decisions))
	for i, d := range f.Decisions {
		in := services.CreateDecisionInput{
			Title:           d.Title,
			Kind:            types.Kind(d.Kind),
			CooldownSeconds: d.CooldownSeconds,
			Granularity:     types.Granularity(d.Granularity),
			YesLabel:        d.YesLabel,
			NoLabel:         d.NoLabel,
		}
		if d.Probability != "" {
			p, err := decimal.NewFromString(d.Probability)
			if err != nil {
				return nil, fmt.Errorf("decision %d (%q): probability: %w", i, d.Title, err)
			}
			in.Probability = pointers.Ptr(p)
		}
		for _, c := range d.Choices {
			w, err := decimal.NewFromString(c.Weight)
			if err != nil {
				return nil, fmt.Errorf("decision %d (%q): weight of %q: %w", i, d.Title, c.Name, err)
			}
			in.Choices = append(in.Choices, services.ChoiceInput{Name: c.Name, Weight: w})
		}
		out = append(out, in)
	}
	return out, nil
}

// Apply creates every decision for owner and returns how many were created.
// It stops at the first failure.
func Apply(ctx context.Context, log *logger.Logger, decisions services.DecisionService, owner uuid.UUID, inputs []services.CreateDecisionInput) (int, error) {
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: owner})
	for i, in := range inputs {
		d, err := decisions.Create(ctx, in)
		if err != nil {
			return i, fmt.Errorf("seed %q: %w", in.Title, err)
		}
		log.Info("Seeded decision", "decision_id", d.ID, "title", d.Title, "user_id", owner)
	}
	return len(inputs), nil
}
