package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show docent status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			b := version.Current()
			fmt.Fprintf(out, "Docent %s (commit %s)\n\n", b.Version, b.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}
			printStatus(out, cfg)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}
			return nil
		},
	}

	return cmd
}

func printStatus(out io.Writer, cfg config.Config) {
	auth := "none"
	if cfg.Server.Auth.Token != "" {
		auth = "token"
	}
	fmt.Fprintf(out, "Server:  port=%d bind=%s auth=%s maxUpload=%dB documentChars=%d\n",
		cfg.Server.Port, cfg.Server.Bind, auth, cfg.Server.MaxUploadBytes, cfg.Server.DocumentChars)

	fmt.Fprintf(out, "LLM:     %s\n", describeModel(cfg.LLM))
	fmt.Fprintf(out, "Text:    %s\n", describeModel(cfg.TextAgent))
	fmt.Fprintf(out, "Search:  provider=%s key=%s max=%d\n", cfg.Search.Provider, keyState(cfg.Search.APIKey), cfg.Search.MaxResults)
	fmt.Fprintf(out, "Embed:   provider=%s model=%s dim=%d\n", cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimension)
	fmt.Fprintf(out, "Index:   backend=%s name=%s\n", cfg.Index.Backend, cfg.Index.Name)
	fmt.Fprintf(out, "Rerank:  provider=%s topK=%d topN=%d\n", cfg.Rerank.Provider, cfg.Rerank.TopK, cfg.Rerank.TopN)
	fmt.Fprintf(out, "Cache:   capacity=%d ttl=%ds\n", cfg.Cache.Capacity, cfg.Cache.TTLSeconds)
	fmt.Fprintf(out, "Agent:   maxRounds=%d toolConcurrency=%d\n", cfg.Agent.MaxRounds, cfg.Agent.ToolConcurrency)
}

func describeModel(m config.ModelConfig) string {
	s := fmt.Sprintf("%s/%s key=%s", m.Provider, m.Model, keyState(m.APIKey))
	if len(m.Fallbacks) > 0 {
		var fbs []string
		for _, fb := range m.Fallbacks {
			fbs = append(fbs, fb.Provider+"/"+fb.Model)
		}
		s += " fallbacks=" + strings.Join(fbs, ",")
	}
	return s
}

func keyState(key string) string {
	if key == "" {
		return "missing"
	}
	return "set"
}
