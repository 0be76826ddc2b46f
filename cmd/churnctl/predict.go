package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gochurn/app"
	"gochurn/domain/customer"
	"gochurn/internal"
	"gochurn/internal/config"
	"gochurn/internal/errors"

	"github.com/spf13/cobra"
)

func newPredictCmd(logger func() *internal.Logger) *cobra.Command {
	var (
		store     storeFlags
		modelID   string
		inputPath string
		horizons  string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score customer records with a stored model",
		Long: `Score one customer (a JSON object) or many (a JSON array) and print the
survival predictions as JSON. Without --model-id the active model is used.

Example: echo '{"Age":40,"Gender":"Female","Usage_Frequency":10,"Support_Calls":2,"Total_Spend":500,"Subscription_Type":"Standard","Contract_Length":"Monthly"}' | churnctl predict --out ./models --input -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger()

			hs, err := config.ParseHorizons(horizons)
			if err != nil {
				return err
			}
			inputs, single, err := readInputs(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			c, err := store.open(ctx, log)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			svc, err := app.LoadPredictionService(ctx, c.Artifacts, modelID, app.PredictionOptions{
				Horizons:         hs,
				BatchConcurrency: 4,
			}, log)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if single {
				pred, err := svc.Predict(ctx, inputs[0])
				if err != nil {
					return err
				}
				return enc.Encode(pred.ToResponse())
			}

			items, err := svc.PredictBatch(ctx, inputs)
			if err != nil {
				return err
			}
			out := make([]interface{}, len(items))
			for i, item := range items {
				if item.Err != nil {
					out[i] = map[string]string{"error": item.Err.Error(), "code": errors.GetCode(item.Err)}
					continue
				}
				out[i] = item.Prediction.ToResponse()
			}
			return enc.Encode(out)
		},
	}

	store.register(cmd)
	cmd.Flags().StringVar(&modelID, "model-id", "", "Model to use (default: the active model)")
	cmd.Flags().StringVar(&inputPath, "input", "-", "JSON input file, or - for stdin")
	cmd.Flags().StringVar(&horizons, "horizons", "30,90,180", "Comma-separated survival horizons")

	return cmd
}

// readInputs accepts a single customer object or an array of them
func readInputs(stdin io.Reader, path string) ([]customer.Input, bool, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" || path == "" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read input: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, fmt.Errorf("input is empty")
	}
	if raw[0] == '[' {
		var inputs []customer.Input
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return nil, false, fmt.Errorf("invalid input: %w", err)
		}
		if len(inputs) == 0 {
			return nil, false, fmt.Errorf("input array is empty")
		}
		return inputs, false, nil
	}
	var in customer.Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, false, fmt.Errorf("invalid input: %w", err)
	}
	return []customer.Input{in}, true, nil
}
