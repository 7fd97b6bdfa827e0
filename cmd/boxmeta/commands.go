package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"boxmeta/adapters/api"
	"boxmeta/adapters/excel"
	"boxmeta/adapters/report"
	"boxmeta/app"
	"boxmeta/domain/run"
	"boxmeta/internal"
	"boxmeta/internal/config"
	"boxmeta/internal/errors"
	"boxmeta/ports"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "boxmeta",
		Short:         "Convert box plot summaries to mean and SD estimates for meta-analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newTemplateCmd(),
		newConvertCmd(),
		newQuickCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// engineFlags override the environment configuration when set explicitly
type engineFlags struct {
	mode        string
	fiveNumber  string
	confidence  float64
	correlation float64
	workers     int
	format      string
	lang        string
	output      string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVar(&f.mode, "mode", d.Engine.Mode, "Comparison mode: intervention-baseline, pairwise, all or none")
	cmd.Flags().StringVar(&f.fiveNumber, "five-number", d.Engine.FiveNumber, "Grade-1 formula: banded or closed")
	cmd.Flags().Float64Var(&f.confidence, "confidence", d.Engine.ConfidenceLevel, "Confidence level in (0, 1)")
	cmd.Flags().Float64Var(&f.correlation, "correlation", d.Engine.Correlation, "Assumed correlation between compared samples")
	cmd.Flags().IntVar(&f.workers, "workers", d.Run.Workers, "Groups estimated in parallel")
	cmd.Flags().StringVarP(&f.format, "format", "f", d.Report.Format, "Report format: text, json, yaml, markdown or html")
	cmd.Flags().StringVar(&f.lang, "lang", d.Report.Language, "Report language (en or zh)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
}

// loadConfig reads the environment, then applies flags the user set
func (f *engineFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Engine.Mode = f.mode
	}
	if flags.Changed("five-number") {
		cfg.Engine.FiveNumber = f.fiveNumber
	}
	if flags.Changed("confidence") {
		cfg.Engine.ConfidenceLevel = f.confidence
	}
	if flags.Changed("correlation") {
		cfg.Engine.Correlation = f.correlation
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = f.workers
	}
	if flags.Changed("format") {
		cfg.Report.Format = f.format
	}
	if flags.Changed("lang") {
		cfg.Report.Language = f.lang
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *internal.Logger {
	return internal.NewFormattedLogger(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Format)
}

func newTemplateCmd() *cobra.Command {
	var cases int
	var lang string

	cmd := &cobra.Command{
		Use:   "template [path]",
		Short: "Write a blank input template (.csv or .xlsx)",
		Long: `Write a blank input template with a Baseline and an Intervention block.

Example: boxmeta template input.xlsx --cases 6 --lang zh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl := excel.DefaultTemplateConfig().WithLanguage(lang)
			tmpl.Cases = cases
			if err := excel.WriteTemplate(args[0], tmpl); err != nil {
				return err
			}
			pterm.Success.Printf("Template written to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&cases, "cases", excel.DefaultTemplateConfig().Cases, "Number of case columns per group")
	cmd.Flags().StringVar(&lang, "lang", "en", "Label language (en or zh)")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Estimate means and SDs for every case in a sheet",
		Long: `Read a CSV or XLSX sheet of box plot blocks, estimate mean and SD for every
case, compare the groups and print a report.

Example: boxmeta convert data.xlsx --format markdown -o report.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer logger.Sync()

			reader := excel.NewDataReader(args[0]).WithLogger(logger)
			return runConversion(cmd, cfg, reader, flags.output, logger)
		},
	}

	flags.register(cmd)
	return cmd
}

func newQuickCmd() *cobra.Command {
	var flags engineFlags
	var in app.QuickInput

	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Convert comma-separated values typed on the command line",
		Long: `Convert one group, or a baseline/intervention pair when --n2 is set, from
comma-separated values. Leave a position empty to skip that value.

Example: boxmeta quick --q1 -8,2 --q2 0,12 --q3 6,20 --lower -20,-10 --upper 18,34 --n1 30 --n2 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer logger.Sync()

			groups, err := app.QuickGroups(in)
			if err != nil {
				return err
			}
			return runConversion(cmd, cfg, ports.StaticSource{Groups: groups}, flags.output, logger)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&in.Q1, "q1", "", "First quartiles")
	cmd.Flags().StringVar(&in.Q2, "q2", "", "Medians")
	cmd.Flags().StringVar(&in.Q3, "q3", "", "Third quartiles")
	cmd.Flags().StringVar(&in.Lower, "lower", "", "Lower whiskers")
	cmd.Flags().StringVar(&in.Upper, "upper", "", "Upper whiskers")
	cmd.Flags().StringVar(&in.LowerOutlier, "lower-outlier", "", "Lowest outliers")
	cmd.Flags().StringVar(&in.UpperOutlier, "upper-outlier", "", "Highest outliers")
	cmd.Flags().IntVar(&in.N1, "n1", 0, "Sample size of every case (first group)")
	cmd.Flags().IntVar(&in.N2, "n2", 0, "Sample size of the intervention group")
	_ = cmd.MarkFlagRequired("n1")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			opts, err := app.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer logger.Sync()

			apiConfig := api.DefaultConfig()
			apiConfig.Port = cfg.Server.Port
			apiConfig.Language = cfg.Report.Language
			apiConfig.RateLimit = cfg.Server.RateLimit
			apiConfig.Burst = cfg.Server.Burst
			apiConfig.AllowedOrigins = cfg.Server.AllowedOrigins

			pterm.Info.Printf("Listening on :%s (Ctrl+C to stop)\n", apiConfig.Port)
			return api.NewApp(apiConfig, opts, logger).Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", config.Default().Server.Port, "Port to listen on")
	return cmd
}

func runConversion(cmd *cobra.Command, cfg *config.Config, src ports.GroupSource, output string, logger *internal.Logger) error {
	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	renderer, err := report.New(cfg.Report.Format, cfg.Report.Language)
	if err != nil {
		return err
	}

	rep, err := app.NewConversionService(opts).WithLogger(logger).ConvertSource(cmd.Context(), src)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		return errors.Wrap(err, "failed to render report")
	}

	if output == "" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return errors.IOError(fmt.Sprintf("failed to write %s", output), err)
	}
	printSummary(rep, output)
	return nil
}

func printSummary(rep *run.Report, output string) {
	s := rep.Summary
	pterm.Success.Printf("Report written to %s\n", output)
	pterm.Info.Printf("%d groups, %d/%d cases estimated, overall grade %s\n",
		s.TotalGroups, s.SuccessfulCases, s.TotalCases, s.OverallGrade)
	for _, w := range rep.Warnings {
		pterm.Warning.Println(w)
	}
	if s.FailedCases > 0 {
		pterm.Warning.Printf("%d cases could not be estimated, see the report for reasons\n", s.FailedCases)
	}
}
