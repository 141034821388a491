package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"synergyfit/adapters/excel"
	"synergyfit/adapters/memory"
	"synergyfit/adapters/postgres"
	"synergyfit/app"
	"synergyfit/domain/dataset"
	"synergyfit/internal/api"
	"synergyfit/internal/classify"
	"synergyfit/internal/config"
	"synergyfit/internal/metrics"
	"synergyfit/internal/migration"
	"synergyfit/internal/selection"
	"synergyfit/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "synergyfit",
		Short: "Fitness-versus-performance analysis for boolean model populations",
	}

	rootCmd.AddCommand(
		newMetricsCmd(),
		newSelectCmd(),
		newClassifyCmd(),
		newCompareCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMetricsCmd() *cobra.Command {
	var dataRoot string

	cmd := &cobra.Command{
		Use:   "metrics [cell-line] [population]",
		Short: "Derive per-model fitness/TP/MCC metrics for one dataset",
		Long: `Load one cell line's simulation artifacts, reduce the population to
structurally unique models, and print the derived metric table.

Example: synergyfit metrics AGS calibrated --data-root ./data`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadScreening(dataRoot, args[0], args[1])
			if err != nil {
				return err
			}

			unique := selection.DedupeBySignature(data.Models)
			table, err := metrics.EvaluatePopulation(cmd.Context(), unique, data.Steady, data.Observed)
			if err != nil {
				return err
			}

			fmt.Println("model_id\tfitness\ttp_count\tmcc")
			for _, id := range table.ModelIDs() {
				rec, _ := table.Record(id)
				fmt.Printf("%s\t%.4f\t%d\t%s\n", rec.ModelID, rec.Fitness, rec.TPCount, formatFloat(rec.MCC))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot(), "Dataset root directory")
	return cmd
}

func newSelectCmd() *cobra.Command {
	var dataRoot string
	var populations []string

	cmd := &cobra.Command{
		Use:   "select [cell-line...]",
		Short: "Rank candidate datasets by metric discriminativeness",
		Long: `Derive metrics for every (cell line, population) pair and print the
advisory ranking used to pick the analysis dataset.

Example: synergyfit select AGS SW620 --populations calibrated,random`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates := make([]*ports.ScreeningData, 0, len(args)*len(populations))
			for _, cellLine := range args {
				for _, population := range populations {
					data, err := loadScreening(dataRoot, cellLine, population)
					if err != nil {
						return err
					}
					candidates = append(candidates, data)
				}
			}

			service := app.NewAnalysisService(memory.NewAnalysisRepository(), memory.NewArtifactRepository())
			_, rankings, err := service.CompareDatasets(cmd.Context(), candidates)
			if err != nil {
				return err
			}

			fmt.Println("rank\tdataset\tfitness_range\tmcc_range\ttp_range\tscore")
			for _, r := range rankings {
				fmt.Printf("%d\t%s\t%s\t%s\t%s\t%.4f\n",
					r.Rank, r.Key, formatFloat(r.FitnessRange), formatFloat(r.MCCRange),
					formatFloat(r.TPRange), r.CombinedScore)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot(), "Dataset root directory")
	cmd.Flags().StringSliceVar(&populations, "populations", []string{"calibrated", "random"}, "Model populations per cell line")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var dataRoot, metric string
	var classes int

	cmd := &cobra.Command{
		Use:   "classify [cell-line] [population]",
		Short: "Partition a metric vector into k ordered classes",
		Long: `Derive metrics and run optimal 1-D clustering on the chosen score
vector. NaN MCC entries are excluded before clustering.

Example: synergyfit classify AGS calibrated --metric fitness --classes 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadScreening(dataRoot, args[0], args[1])
			if err != nil {
				return err
			}

			unique := selection.DedupeBySignature(data.Models)
			table, err := metrics.EvaluatePopulation(cmd.Context(), unique, data.Steady, data.Observed)
			if err != nil {
				return err
			}

			var values []float64
			switch metric {
			case "fitness":
				values = table.FitnessVector()
			case "mcc":
				values = dropNaN(table.MCCVector())
			default:
				return fmt.Errorf("unknown metric %q (want fitness or mcc)", metric)
			}

			classification, err := classify.Cluster1D(values, classes)
			if err != nil {
				return err
			}

			fmt.Printf("classified %d values into %d classes\n", len(values), classification.K)
			fmt.Println("class\tcenter\tsize")
			for i := 0; i < classification.K; i++ {
				fmt.Printf("%d\t%.4f\t%d\n", i+1, classification.Centers[i], classification.Sizes[i])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot(), "Dataset root directory")
	cmd.Flags().StringVar(&metric, "metric", "fitness", "Score vector to classify: fitness|mcc")
	cmd.Flags().IntVar(&classes, "classes", 3, "Number of ordered classes")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var dataRoot string
	var seed int64
	var classes, sample int

	cmd := &cobra.Command{
		Use:   "compare [cell-line] [population]",
		Short: "Run the full metric → classify → test pipeline",
		Long: `Run the complete analysis for one dataset and print the markdown
report. Results are kept in memory; use the server for persistence.

Example: synergyfit compare AGS calibrated --seed 42 --classes 3 --sample 1000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runPipeline(cmd.Context(), dataRoot, args[0], args[1],
				app.AnalysisOptions{Seed: seed, Classes: classes, SampleSize: sample})
			if err != nil {
				return err
			}
			fmt.Println(result.ReportMarkdown)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot(), "Dataset root directory")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic subsampling")
	cmd.Flags().IntVar(&classes, "classes", 3, "Number of ordered classes")
	cmd.Flags().IntVar(&sample, "sample", 0, "Subsample size (0 analyzes all unique models)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var dataRoot, out string
	var seed int64
	var classes, sample int

	cmd := &cobra.Command{
		Use:   "export [cell-line] [population]",
		Short: "Run the pipeline and export result tables to a workbook",
		Long: `Run the complete analysis and write the summary, per-model metric
and test-result sheets to one xlsx workbook.

Example: synergyfit export AGS calibrated --out results.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runPipeline(cmd.Context(), dataRoot, args[0], args[1],
				app.AnalysisOptions{Seed: seed, Classes: classes, SampleSize: sample})
			if err != nil {
				return err
			}

			workbook := excel.NewWorkbook()
			if err := workbook.AddSummarySheet([]dataset.Summary{result.Summary}, nil); err != nil {
				return err
			}
			if err := workbook.AddMetricsSheet(result.Metrics, result.Classification); err != nil {
				return err
			}
			if err := workbook.AddTestSheet(&result.Suite); err != nil {
				return err
			}
			if err := workbook.Save(out); err != nil {
				return err
			}

			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot(), "Dataset root directory")
	cmd.Flags().StringVar(&out, "out", "analysis.xlsx", "Output workbook path")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic subsampling")
	cmd.Flags().IntVar(&classes, "classes", 3, "Number of ordered classes")
	cmd.Flags().IntVar(&sample, "sample", 0, "Subsample size (0 analyzes all unique models)")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analysis HTTP server",
		Long: `Start the gin server backed by PostgreSQL. Configuration comes from
the environment (DATABASE_URL, DATA_ROOT, PORT, ANALYSIS_* defaults).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load()
			if err != nil {
				return err
			}

			db, err := sqlx.Connect("postgres", appConfig.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := migration.NewRunner().Run(cmd.Context(), db); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}

			analyses := postgres.NewAnalysisRepository(db)
			artifacts := postgres.NewArtifactRepository(db)
			service := app.NewAnalysisService(analyses, artifacts)

			server := api.NewServer(service, analyses, artifacts,
				readerFactory(appConfig.Data.Root),
				app.AnalysisOptions{
					Seed:       appConfig.Analysis.Seed,
					Classes:    appConfig.Analysis.Classes,
					SampleSize: appConfig.Analysis.SampleSize,
				})

			log.Printf("Starting server on port %s", appConfig.Server.Port)
			return server.Run(":" + appConfig.Server.Port)
		},
	}
	return cmd
}

func runPipeline(ctx context.Context, dataRoot, cellLine, population string, opts app.AnalysisOptions) (*app.AnalysisResult, error) {
	data, err := loadScreening(dataRoot, cellLine, population)
	if err != nil {
		return nil, err
	}
	service := app.NewAnalysisService(memory.NewAnalysisRepository(), memory.NewArtifactRepository())
	return service.Run(ctx, data, opts)
}

func loadScreening(dataRoot, cellLine, population string) (*ports.ScreeningData, error) {
	loader := excel.NewScreeningLoader(excel.DefaultLoaderConfig(dataRoot, cellLine, population))
	return loader.Read()
}

func readerFactory(dataRoot string) api.ReaderFactory {
	return func(cellLine, population string) ports.ScreeningReader {
		return excel.NewScreeningLoader(excel.DefaultLoaderConfig(dataRoot, cellLine, population))
	}
}

func defaultDataRoot() string {
	if root := os.Getenv("DATA_ROOT"); root != "" {
		return root
	}
	return "./data"
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4f", v)
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
