package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/studio"
	"github.com/spf13/cobra"
)

func newVideoCmd(opts *rootOptions) *cobra.Command {
	var out, aspect string

	cmd := &cobra.Command{
		Use:   "video <image> [body part]",
		Short: "Render a short video of a design on skin",
		Long: `Submits a video simulation of the design on the given body part and waits
for it to finish. Rendering usually takes a few minutes.`,
		Args:    cobra.MinimumNArgs(1),
		Example: `  inkstudio video wolf.png "left forearm" --aspect 16:9 --out wolf.mp4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}
			bodyPart := studio.DefaultBodyPart
			if len(args) > 1 {
				bodyPart = strings.Join(args[1:], " ")
			}

			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ws := a.workspace()
			defer ws.Close()

			s, err := openPanel(cmd.Context(), ws, img, studio.ModeVideo)
			if err != nil {
				return err
			}
			panel, err := s.Video()
			if err != nil {
				return err
			}

			state, err := panel.Generate(cmd.Context(), bodyPart, providers.AspectRatio(aspect))
			if err != nil {
				return screenError(state.Error, err)
			}
			slog.Info("Video submitted", "operation", state.Job.Name, "bodyPart", bodyPart)
			if state.Message != "" {
				fmt.Println(state.Message)
			}

			state, err = panel.Wait(cmd.Context())
			if err != nil {
				return screenError(state.Error, err)
			}

			data, _, fileName, err := panel.Download()
			if err != nil {
				return err
			}
			if out == "" {
				out = fileName
			}
			return writeOutput(out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default tattoo-design-<operation>.mp4)")
	cmd.Flags().StringVar(&aspect, "aspect", string(providers.AspectLandscape), "Aspect ratio (16:9 or 9:16)")

	return cmd
}
