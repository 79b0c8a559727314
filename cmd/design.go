package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/studio"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var out string
	var save bool

	cmd := &cobra.Command{
		Use:     "analyze <image>",
		Short:   "Analyze a tattoo photo and recreate it as a clean design",
		Args:    cobra.ExactArgs(1),
		Example: `  inkstudio analyze arm.jpg --out wolf.png --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ws := a.workspace()
			defer ws.Close()

			state, err := ws.Studio().Upload(cmd.Context(), img)
			if err != nil {
				return screenError(state.Error, err)
			}
			fmt.Printf("Style:   %s\nConcept: %s\nPrompt:  %s\n", state.Style, state.Concept, state.Prompt)

			recreated, _ := ws.Studio().Recreated()
			if out != "" {
				if err := writeOutput(out, recreated.Data); err != nil {
					return err
				}
			}
			if save {
				design, err := ws.Studio().Save(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Saved %s\n", design.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the recreated design to this file")
	cmd.Flags().BoolVar(&save, "save", false, "Save the recreated design to the library")

	return cmd
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var out, aspect string
	var save bool

	cmd := &cobra.Command{
		Use:     "generate <prompt>",
		Short:   "Generate a stencil-style design from a description",
		Args:    cobra.MinimumNArgs(1),
		Example: `  inkstudio generate "a koi fish swimming upstream" --aspect 9:16 --out koi.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ws := a.workspace()
			defer ws.Close()

			state, err := ws.Generator().Generate(cmd.Context(), strings.Join(args, " "), providers.AspectRatio(aspect))
			if err != nil {
				return screenError(state.Error, err)
			}

			img, _ := ws.Generator().Image()
			if out == "" {
				out = "tattoo-design" + codec.Extension(img.MimeType)
			}
			if err := writeOutput(out, img.Data); err != nil {
				return err
			}
			if save {
				design, err := ws.Generator().Save(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Saved %s\n", design.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default tattoo-design.<ext>)")
	cmd.Flags().StringVar(&aspect, "aspect", string(providers.AspectSquare), "Aspect ratio (1:1 or 9:16)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the design to the library")

	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "edit <image> <instruction>",
		Short:   "Refine a design with a chat instruction",
		Args:    cobra.MinimumNArgs(2),
		Example: `  inkstudio edit wolf.png "add a crescent moon behind the head" --out wolf-moon.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ws := a.workspace()
			defer ws.Close()

			s, err := openPanel(cmd.Context(), ws, img, studio.ModeChat)
			if err != nil {
				return err
			}
			chat, err := s.Chat()
			if err != nil {
				return err
			}

			state, err := chat.Send(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				return screenError(state.Error, err)
			}

			last := state.Messages[len(state.Messages)-1]
			if last.Image == nil {
				return fmt.Errorf("%w: no edited image returned", models.ErrMissingResult)
			}
			mimeType, data, err := codec.ParseDataURI(last.Image.DataURI)
			if err != nil {
				return err
			}
			if out == "" {
				out = "tattoo-design-edited" + codec.Extension(mimeType)
			}
			return writeOutput(out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default tattoo-design-edited.<ext>)")

	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ask <question>",
		Short:   "Ask a web-grounded question about tattoo styles and history",
		Args:    cobra.MinimumNArgs(1),
		Example: `  inkstudio ask "What is the history of American Traditional tattoos?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ws := a.workspace()
			defer ws.Close()

			state, err := ws.Inspiration().Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return screenError(state.Error, err)
			}

			fmt.Println(state.Messages[len(state.Messages)-1].Text)
			if len(state.Sources) > 0 {
				fmt.Println("\nSources:")
				for _, source := range state.Sources {
					fmt.Printf("  - %s (%s)\n", source.Title, source.URI)
				}
			}
			return nil
		},
	}

	return cmd
}

// openPanel seeds the studio with img and opens a chat or video panel
func openPanel(ctx context.Context, ws *studio.Workspace, img providers.Image, mode studio.Mode) (*studio.Studio, error) {
	ws.UseDesign(models.Handoff{Image: img.Data, MimeType: img.MimeType})
	s := ws.Studio()
	if err := s.SetMode(ctx, mode); err != nil {
		return nil, err
	}
	return s, nil
}
