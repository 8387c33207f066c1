package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cutline/internal/engine"
)

func timelineCmd() *cobra.Command {
	tl := &cobra.Command{
		Use:   "timeline",
		Short: "Inspect the edited timeline",
		Long:  "The edited timeline drops cut segments and stretches or squeezes sped-up ranges.",
	}
	tl.AddCommand(&cobra.Command{
		Use:   "map",
		Short: "Show how source spans land on the edited timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				m := s.Timeline()
				if viper.GetBool("json") {
					return printJSON(m)
				}
				tw := newTable("Segment", "Source", "Edited start", "Edited length", "Pieces")
				for _, sp := range m.Spans {
					tw.AppendRow(table.Row{
						sp.SegmentID,
						fmt.Sprintf("%s-%s", seconds(sp.SourceStart), seconds(sp.SourceEnd)),
						seconds(sp.EditedStart),
						seconds(sp.EditedDuration),
						len(sp.Pieces),
					})
				}
				tw.AppendFooter(table.Row{"", seconds(m.SourceDuration), "", seconds(m.Total), ""})
				fmt.Println(tw.Render())
				return nil
			})
		},
	})
	tl.AddCommand(&cobra.Command{
		Use:   "duration",
		Short: "Show source and edited duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				source, edited := s.Project().Duration, s.EditedDuration()
				if viper.GetBool("json") {
					return printJSON(map[string]float64{"source": source, "edited": edited})
				}
				fmt.Printf("source: %s\nedited: %s\n", seconds(source), seconds(edited))
				return nil
			})
		},
	})
	var from string
	convert := &cobra.Command{
		Use:   "convert <time>",
		Short: "Convert a time between the source and edited timelines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseSeconds(args[0])
			if err != nil {
				return err
			}
			if from != "source" && from != "edited" {
				return fmt.Errorf("from must be source or edited")
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				m := s.Timeline()
				out := map[string]float64{}
				if from == "source" {
					out["source"], out["edited"] = t, m.SourceToEdited(t)
				} else {
					out["source"], out["edited"] = m.EditedToSource(t), t
				}
				out["edited_offset"] = m.SourceOffsetToEdited(out["source"])
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("source: %s\nedited: %s\nedited offset: %s\n",
					seconds(out["source"]), seconds(out["edited"]), seconds(out["edited_offset"]))
				return nil
			})
		},
	}
	convert.Flags().StringVar(&from, "from", "source", "timeline of the given time: source or edited")
	tl.AddCommand(convert)
	return tl
}

func sampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <time>",
		Short: "Show the active effects at a source time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseSeconds(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				return printJSONOrTable(s.Sample(t))
			})
		},
	}
}

func playCmd() *cobra.Command {
	var from, span float64
	var edited, fast bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the player for a while and report where it ends",
		Long: `Plays the project in real time without rendering frames. Cut segments are
skipped and speed effects change the rate, so the final cursor shows how the
edit plays back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				if edited {
					s.SeekEdited(from)
				} else {
					s.Seek(from)
				}
				s.Play()
				if fast {
					s.FastForward()
				}
				runCtx, cancel := context.WithTimeout(ctx, time.Duration(span*float64(time.Second)))
				defer cancel()
				s.RunPlayback(runCtx)
				return printJSONOrTable(s.Pause())
			})
		},
	}
	cmd.Flags().Float64Var(&from, "from", 0, "start time in seconds")
	cmd.Flags().BoolVar(&edited, "edited", false, "read --from on the edited timeline")
	cmd.Flags().Float64Var(&span, "for", 2, "wall-clock seconds to play")
	cmd.Flags().BoolVar(&fast, "fast", false, "play at the next fast-forward rate")
	return cmd
}
