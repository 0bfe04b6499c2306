package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/releasegate/releasegate/internal/model"
	"github.com/releasegate/releasegate/internal/service"
	"github.com/releasegate/releasegate/internal/standards"
)

var (
	inputPath    string
	outputPath   string
	standardsDir string
)

// validateCmd runs the gate over one request file
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an article request and print the release report",
	Long: `Read a validation request (JSON) from a file or stdin, run the three
dimension checks, and print the structured report.

Exit code 0 means a report was produced, regardless of the decision inside it;
configuration errors exit non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(inputPath)
		if err != nil {
			return err
		}

		req, err := model.ParseRequest(data)
		if err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
		applyEnv(req)

		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		svc := service.New(standards.NewResolver(standardsDir), logger)
		report, err := svc.Validate(cmd.Context(), req)
		if err != nil {
			return err
		}

		rendered, err := report.Serialize()
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		if outputPath != "" {
			if err := os.WriteFile(outputPath, rendered, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Wrote report: %s\n", outputPath)
			}
			return nil
		}
		fmt.Println(string(rendered))
		return nil
	},
}

// readInput loads the request body from a file or stdin ("-")
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return data, nil
}

// applyEnv fills configuration the request left empty from the environment.
// Precedence: explicit request field > environment variable > default.
func applyEnv(req *model.ValidationRequest) {
	if req.LLM.APIKey == "" {
		req.LLM.APIKey = firstNonEmpty(
			viper.GetString("llm.api_key"),
			os.Getenv("OPENAI_API_KEY"),
		)
	}
	if req.LLM.Model == "" {
		req.LLM.Model = viper.GetString("llm.model")
	}
	if req.LLM.BaseURL == "" {
		req.LLM.BaseURL = viper.GetString("llm.base_url")
	}
	if req.Persistence.Driver == "" {
		req.Persistence.Driver = viper.GetString("persistence.driver")
		req.Persistence.Path = viper.GetString("persistence.path")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	validateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "request JSON file (default: stdin)")
	validateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write report to file instead of stdout")
	validateCmd.Flags().StringVar(&standardsDir, "standards-dir", "", "directory of per-article-type standards YAML files")

	rootCmd.AddCommand(validateCmd)
}
