package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/leofalp/aistream/core/stream"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/ai/anthropic"
	"github.com/leofalp/aistream/providers/ai/gemini"
	"github.com/leofalp/aistream/providers/ai/generic"
	"github.com/leofalp/aistream/providers/ai/openai"
)

// vendors maps the built-in adapter names to their constructors. The
// constructors only read the environment, so building one is cheap.
var vendors = map[string]func() ai.StreamProvider{
	"openai":    func() ai.StreamProvider { return openai.NewOpenAIProvider() },
	"anthropic": func() ai.StreamProvider { return anthropic.New() },
	"gemini":    func() ai.StreamProvider { return gemini.New() },
}

func vendorNames() []string {
	names := make([]string, 0, len(vendors))
	for name := range vendors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// resolveProfile picks a stream profile from a YAML file, a vendor adapter
// name or a built-in generic profile name, in that order.
func resolveProfile(name, file string) (stream.Profile, error) {
	if file != "" {
		profile, err := generic.Load(file)
		if err != nil {
			return stream.Profile{}, err
		}
		return profile.StreamProfile()
	}
	if name == "" {
		return stream.Profile{}, fmt.Errorf("a --profile or --profile-file is required")
	}
	if newProvider, ok := vendors[name]; ok {
		return newProvider().Profile(), nil
	}
	profile, err := generic.Builtin(name)
	if err != nil {
		return stream.Profile{}, fmt.Errorf("unknown profile %q: not a vendor (%v) nor a built-in generic profile", name, vendorNames())
	}
	return profile.StreamProfile()
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the available stream profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range vendorNames() {
			profile := vendors[name]().Profile()
			fmt.Fprintf(out, "%-20s vendor   mode=%s\n", name, profile.Mode)
		}
		for _, name := range generic.BuiltinNames() {
			profile, err := generic.Builtin(name)
			if err != nil {
				return err
			}
			mode := profile.Mode
			if mode == "" {
				mode = "line"
			}
			fmt.Fprintf(out, "%-20s generic  mode=%s\n", name, mode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
