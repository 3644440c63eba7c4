package traversal

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/shift-sync/internal/common"
)

//go:embed profile.schema.json
var profileSchema []byte

// Point is a position relative to the top-left corner of the capture surface.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SummaryAdvance scrolls past the weekly summary band. The first week's band is shorter.
type SummaryAdvance struct {
	First float64 `yaml:"first"`
	Later float64 `yaml:"later"`
	At    Point   `yaml:"at"`
}

// RowAdvance brings the next row under the select point.
type RowAdvance struct {
	Delta float64 `yaml:"delta"`
	At    Point   `yaml:"at"`
}

// Delays are settle waits applied after an interaction, before the next step runs.
type Delays struct {
	AfterSelect         time.Duration `yaml:"after_select"`
	AfterBack           time.Duration `yaml:"after_back"`
	AfterSummaryAdvance time.Duration `yaml:"after_summary_advance"`
	AfterAdvance        time.Duration `yaml:"after_advance"`
	AfterClick          time.Duration `yaml:"after_click"`
	BetweenWheelSteps   time.Duration `yaml:"between_wheel_steps"`
}

// ActionKind names a preamble action.
type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionWheel    ActionKind = "wheel"
	ActionSnapshot ActionKind = "snapshot"
	ActionWait     ActionKind = "wait"
)

// Action is one preamble step run before the first row.
type Action struct {
	Kind   ActionKind    `yaml:"action"`
	X      float64       `yaml:"x,omitempty"`
	Y      float64       `yaml:"y,omitempty"`
	DeltaY float64       `yaml:"delta_y,omitempty"`
	Steps  int           `yaml:"steps,omitempty"`
	Name   string        `yaml:"name,omitempty"`
	Wait   time.Duration `yaml:"wait,omitempty"`
}

// Profile carries every UI-specific offset and wait of a traversal.
type Profile struct {
	Rows           int            `yaml:"rows"`
	Locator        string         `yaml:"locator"`
	Select         Point          `yaml:"select"`
	SummaryAdvance SummaryAdvance `yaml:"summary_advance"`
	RowAdvance     RowAdvance     `yaml:"row_advance"`
	Delays         Delays         `yaml:"delays"`
	LocateTimeout  time.Duration  `yaml:"locate_timeout"`
	StepTimeout    time.Duration  `yaml:"step_timeout"`
	// AfterSummarySnapshots saves a diagnostic image after each summary advance.
	AfterSummarySnapshots bool     `yaml:"after_summary_snapshots"`
	Preamble              []Action `yaml:"preamble"`
}

// DefaultProfile matches the schedule view this tool was tuned against.
func DefaultProfile() Profile {
	return Profile{
		Rows:    21,
		Locator: "flutter-view",
		Select:  Point{X: 1200, Y: 195},
		SummaryAdvance: SummaryAdvance{
			First: 100,
			Later: 150,
			At:    Point{X: 1200, Y: 195},
		},
		RowAdvance: RowAdvance{
			Delta: 114,
			At:    Point{X: 1200, Y: 290},
		},
		Delays: Delays{
			AfterSelect:         time.Second,
			AfterBack:           2 * time.Second,
			AfterSummaryAdvance: 2 * time.Second,
			AfterAdvance:        2 * time.Second,
			AfterClick:          2 * time.Second,
			BetweenWheelSteps:   200 * time.Millisecond,
		},
		LocateTimeout:         30 * time.Second,
		StepTimeout:           10 * time.Second,
		AfterSummarySnapshots: true,
		Preamble: []Action{
			{Kind: ActionSnapshot, Name: "dashboard"},
			{Kind: ActionClick, X: 300, Y: 300},
			{Kind: ActionSnapshot, Name: "schedule_tile"},
			{Kind: ActionClick, X: 1200, Y: 550},
			{Kind: ActionSnapshot, Name: "minimize_one"},
			{Kind: ActionClick, X: 1200, Y: 300},
			{Kind: ActionSnapshot, Name: "minimize_two"},
			{Kind: ActionWait, Wait: 2 * time.Second},
			{Kind: ActionWheel, X: 1200, Y: 350, DeltaY: -120, Steps: 10},
			{Kind: ActionSnapshot, Name: "after_scroll_up"},
			{Kind: ActionWait, Wait: 2 * time.Second},
		},
	}
}

// LoadProfile reads a YAML profile. Keys missing from the file keep their default values.
// An empty path returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile validates raw YAML against the profile schema and decodes it over the defaults.
func ParseProfile(data []byte) (Profile, error) {
	if err := validateProfile(data); err != nil {
		return Profile{}, err
	}
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Check(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Check rejects profiles the controller cannot run.
func (p Profile) Check() error {
	if p.Rows <= 0 {
		return fmt.Errorf("profile: rows must be positive, got %d: %w", p.Rows, common.ErrValidation)
	}
	if p.Locator == "" {
		return fmt.Errorf("profile: locator is required: %w", common.ErrValidation)
	}
	for i, a := range p.Preamble {
		switch a.Kind {
		case ActionClick, ActionSnapshot, ActionWait:
		case ActionWheel:
			if a.Steps < 0 {
				return fmt.Errorf("profile: preamble[%d]: negative wheel steps: %w", i, common.ErrValidation)
			}
		default:
			return fmt.Errorf("profile: preamble[%d]: unknown action %q: %w", i, a.Kind, common.ErrValidation)
		}
	}
	return nil
}

func validateProfile(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	if doc == nil {
		return nil
	}
	// round-trip through JSON so the validator sees plain JSON types
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal profile: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profile.schema.json", bytes.NewReader(profileSchema)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("profile.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("profile does not match schema: %w: %w", common.ErrValidation, err)
	}
	return nil
}
