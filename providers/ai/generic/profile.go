package generic

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/stream"
)

// Profile describes a vendor's stream declaratively. Every field except Name
// is a gjson path evaluated against the frame's JSON payload; an empty path
// means the vendor never sends that field.
type Profile struct {
	Name        string `yaml:"name"`
	Mode        string `yaml:"mode"` // "line" (default) or "block"
	DeferFinish bool   `yaml:"defer_finish"`

	// EventType locates the event type when frames carry it in the payload
	// instead of an "event:" line.
	EventType string `yaml:"event_type"`
	// FinishEvents are event types that finish the stream even without a
	// finish reason.
	FinishEvents []string `yaml:"finish_events"`
	// SkipEvents are event types ignored entirely (keep-alives).
	SkipEvents []string `yaml:"skip_events"`

	StreamID     string        `yaml:"stream_id"`
	Text         string        `yaml:"text"`
	ToolCalls    string        `yaml:"tool_calls"` // array or single object
	ToolCall     ToolCallPaths `yaml:"tool_call"`
	FinishReason string        `yaml:"finish_reason"`
	Usage        UsagePaths    `yaml:"usage"`
	Error        ErrorPaths    `yaml:"error"`

	// FinishReasons maps raw vendor tokens to canonical reason names (stop,
	// length, content_filter, tool_calls, error) ahead of the shared table.
	FinishReasons map[string]string `yaml:"finish_reasons"`
}

// ToolCallPaths locate tool call fields relative to one element of
// Profile.ToolCalls. FrameIndex is evaluated against the whole frame and is
// used when the element itself carries no index.
type ToolCallPaths struct {
	ID         string `yaml:"id"`
	Index      string `yaml:"index"`
	FrameIndex string `yaml:"frame_index"`
	Name       string `yaml:"name"`
	Arguments  string `yaml:"arguments"`
}

// UsagePaths locate the usage counters.
type UsagePaths struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Total     string `yaml:"total"`
	Reasoning string `yaml:"reasoning"`
}

// ErrorPaths locate an explicit vendor error. When Path exists in a frame (or
// the frame's event type is listed in Events) the stream is aborted.
type ErrorPaths struct {
	Path    string   `yaml:"path"`
	Events  []string `yaml:"events"`
	Type    string   `yaml:"type"`
	Code    string   `yaml:"code"`
	Message string   `yaml:"message"`
}

// Parse decodes a YAML profile and validates it.
func Parse(data []byte) (Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Load reads and parses a YAML profile file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	profile, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return profile, nil
}

// Validate checks that the profile can drive a stream.
func (profile Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(profile.Name) == "" {
		errs = append(errs, errors.New("profile name is required"))
	}
	if profile.Mode != "" {
		if _, err := sse.ParseMode(profile.Mode); err != nil {
			errs = append(errs, err)
		}
	}
	if profile.Text == "" && profile.ToolCalls == "" {
		errs = append(errs, errors.New("profile needs at least a text or tool_calls path"))
	}
	if profile.ToolCalls != "" && profile.ToolCall.Arguments == "" && profile.ToolCall.Name == "" {
		errs = append(errs, errors.New("tool_call needs a name or arguments path"))
	}
	for raw, name := range profile.FinishReasons {
		if _, ok := stream.ParseFinishReason(name); !ok {
			errs = append(errs, fmt.Errorf("finish_reasons[%q]: unknown reason %q", raw, name))
		}
	}
	return errors.Join(errs...)
}

// StreamProfile converts the declarative profile into a stream.Profile.
func (profile Profile) StreamProfile() (stream.Profile, error) {
	if err := profile.Validate(); err != nil {
		return stream.Profile{}, err
	}

	mode := sse.ModeLine
	if profile.Mode != "" {
		mode, _ = sse.ParseMode(profile.Mode)
	}

	overrides := make(map[string]stream.FinishReason, len(profile.FinishReasons))
	for raw, name := range profile.FinishReasons {
		reason, _ := stream.ParseFinishReason(name)
		overrides[raw] = reason
	}

	extractor := newExtractor(profile)
	return stream.Profile{
		Name:         profile.Name,
		Mode:         mode,
		NewExtractor: func() stream.Extractor { return extractor },
		MapReason:    stream.ReasonMap(overrides),
		DeferFinish:  profile.DeferFinish,
	}, nil
}

// MustStreamProfile is StreamProfile for profiles known to be valid, such as
// the built-in ones. It panics on an invalid profile.
func (profile Profile) MustStreamProfile() stream.Profile {
	converted, err := profile.StreamProfile()
	if err != nil {
		panic(fmt.Sprintf("invalid %s profile: %v", profile.Name, err))
	}
	return converted
}
