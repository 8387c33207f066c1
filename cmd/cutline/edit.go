package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/engine"
)

func segmentCmd() *cobra.Command {
	seg := &cobra.Command{
		Use:   "segment",
		Short: "Cut, keep and trim segments",
		Long:  "Segments tile the source. Disabled segments are skipped in the edited timeline.",
	}
	seg.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				segs := s.Project().EDL.Segments
				if viper.GetBool("json") {
					return printJSON(segs)
				}
				tw := newTable("ID", "Start", "End", "Kept")
				for _, sg := range segs {
					tw.AppendRow(table.Row{sg.ID, seconds(sg.Start), seconds(sg.End), sg.Enabled})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	})
	seg.AddCommand(&cobra.Command{
		Use:   "cut <time>",
		Short: "Split the segment under a source time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseSeconds(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.CutAt(ctx, t)
			})
		},
	})
	seg.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a segment between kept and cut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.ToggleSegment(ctx, args[0])
			})
		},
	})
	seg.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a segment and close the gap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.DeleteSegment(ctx, args[0])
			})
		},
	})
	var start, end float64
	trim := &cobra.Command{
		Use:   "trim <id>",
		Short: "Move the bounds of a segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.TrimSegment(ctx, args[0], start, end)
			})
		},
	}
	trim.Flags().Float64Var(&start, "start", 0, "new start in seconds")
	trim.Flags().Float64Var(&end, "end", 0, "new end in seconds")
	_ = trim.MarkFlagRequired("start")
	_ = trim.MarkFlagRequired("end")
	seg.AddCommand(trim)
	return seg
}

// effectCmd builds the zoom or speed command group; both tracks share the
// same range rules and differ only in their payload.
func effectCmd(track string) *cobra.Command {
	grp := &cobra.Command{
		Use:   track,
		Short: fmt.Sprintf("Manage %s effects", track),
	}
	add, update, remove := effectOps(track)
	grp.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s effects", track),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				p := s.Project()
				if track == engine.TrackZoom {
					if viper.GetBool("json") {
						return printJSON(p.EDL.Zoom)
					}
					tw := newTable("ID", "Start", "End", "Scale", "Focus")
					for _, z := range p.EDL.Zoom {
						tw.AppendRow(table.Row{z.ID, seconds(z.Start), seconds(z.End), z.Scale, fmt.Sprintf("%.2f,%.2f", z.X, z.Y)})
					}
					fmt.Println(tw.Render())
					return nil
				}
				if viper.GetBool("json") {
					return printJSON(p.EDL.Speed)
				}
				tw := newTable("ID", "Start", "End", "Speed")
				for _, sp := range p.EDL.Speed {
					tw.AppendRow(table.Row{sp.ID, seconds(sp.Start), seconds(sp.End), fmt.Sprintf("%gx", sp.Speed)})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	})

	var start, end float64
	addCmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s effect", track),
		Long:  "Ranges that would overlap an existing effect are rejected.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return add(s, ctx, start, end)
			})
		},
	}
	addCmd.Flags().Float64Var(&start, "start", 0, "start in seconds")
	addCmd.Flags().Float64Var(&end, "end", 0, "end in seconds")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")
	grp.AddCommand(addCmd)

	var op string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Move, resize or retune a %s effect", track),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := effectUpdateFromFlags(cmd, op)
			if err != nil {
				return err
			}
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return update(s, ctx, args[0], u)
			})
		},
	}
	updateCmd.Flags().StringVar(&op, "op", "", "move, resize_start, resize_end, resize or payload (inferred when empty)")
	updateCmd.Flags().Float64("start", 0, "start in seconds")
	updateCmd.Flags().Float64("end", 0, "end in seconds")
	if track == engine.TrackZoom {
		updateCmd.Flags().Float64("scale", 0, "zoom factor")
		updateCmd.Flags().Float64("x", 0, "focus x (0..1)")
		updateCmd.Flags().Float64("y", 0, "focus y (0..1)")
	} else {
		updateCmd.Flags().Float64("speed", 0, "playback rate")
	}
	grp.AddCommand(updateCmd)

	grp.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Remove a %s effect", track),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return remove(s, ctx, args[0])
			})
		},
	})
	return grp
}

func effectOps(track string) (
	func(*engine.Session, context.Context, float64, float64) (engine.Outcome, error),
	func(*engine.Session, context.Context, string, engine.EffectUpdate) (engine.Outcome, error),
	func(*engine.Session, context.Context, string) (engine.Outcome, error),
) {
	if track == engine.TrackZoom {
		return (*engine.Session).AddZoom, (*engine.Session).UpdateZoom, (*engine.Session).DeleteZoom
	}
	return (*engine.Session).AddSpeed, (*engine.Session).UpdateSpeed, (*engine.Session).DeleteSpeed
}

func effectUpdateFromFlags(cmd *cobra.Command, op string) (engine.EffectUpdate, error) {
	u := engine.EffectUpdate{Op: edl.Op(op)}
	if op != "" && !u.Op.Valid() {
		return u, fmt.Errorf("unknown op %q", op)
	}
	u.Start = changedFloat(cmd, "start")
	u.End = changedFloat(cmd, "end")
	u.Scale = changedFloat(cmd, "scale")
	u.X = changedFloat(cmd, "x")
	u.Y = changedFloat(cmd, "y")
	u.Speed = changedFloat(cmd, "speed")
	return u, nil
}

func annotationCmd() *cobra.Command {
	ann := &cobra.Command{
		Use:     "annotation",
		Aliases: []string{"ann"},
		Short:   "Manage annotations",
		Long:    "Annotations may overlap each other. Modes: outline, blur, text, arrow.",
	}
	ann.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				items := s.Project().EDL.Annotations
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Start", "End", "Mode", "Box", "Text")
				for _, a := range items {
					box := fmt.Sprintf("%.2f,%.2f %.2fx%.2f", a.Box.X, a.Box.Y, a.Box.Width, a.Box.Height)
					tw.AppendRow(table.Row{a.ID, seconds(a.Start), seconds(a.End), a.Mode, box, a.Text})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	})

	var start, end float64
	var mode string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an annotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := domain.AnnotationMode(mode)
			if !m.Valid() {
				return fmt.Errorf("unknown mode %q", mode)
			}
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.AddAnnotation(ctx, start, end, m)
			})
		},
	}
	add.Flags().Float64Var(&start, "start", 0, "start in seconds")
	add.Flags().Float64Var(&end, "end", 0, "end in seconds")
	add.Flags().StringVar(&mode, "mode", string(domain.AnnotationOutline), "outline, blur, text or arrow")
	_ = add.MarkFlagRequired("start")
	_ = add.MarkFlagRequired("end")
	ann.AddCommand(add)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := annotationPatchFromFlags(cmd)
			if err != nil {
				return err
			}
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.UpdateAnnotation(ctx, args[0], patch)
			})
		},
	}
	update.Flags().Float64("start", 0, "start in seconds")
	update.Flags().Float64("end", 0, "end in seconds")
	update.Flags().String("box", "", "x,y,width,height in normalized units")
	update.Flags().String("color", "", "stroke or text color")
	update.Flags().Float64("opacity", 0, "opacity (0..1)")
	update.Flags().Float64("thickness", 0, "stroke thickness")
	update.Flags().String("text", "", "text for text mode")
	update.Flags().String("mode", "", "outline, blur, text or arrow")
	ann.AddCommand(update)

	ann.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.DeleteAnnotation(ctx, args[0])
			})
		},
	})
	ann.AddCommand(&cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy an annotation right after the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.DuplicateAnnotation(ctx, args[0])
			})
		},
	})
	return ann
}

func annotationPatchFromFlags(cmd *cobra.Command) (edl.AnnotationPatch, error) {
	var patch edl.AnnotationPatch
	patch.Start = changedFloat(cmd, "start")
	patch.End = changedFloat(cmd, "end")
	patch.Opacity = changedFloat(cmd, "opacity")
	patch.Thickness = changedFloat(cmd, "thickness")
	patch.Color = changedString(cmd, "color")
	patch.Text = changedString(cmd, "text")
	if m := changedString(cmd, "mode"); m != nil {
		mode := domain.AnnotationMode(*m)
		if !mode.Valid() {
			return patch, fmt.Errorf("unknown mode %q", *m)
		}
		patch.Mode = &mode
	}
	if raw := changedString(cmd, "box"); raw != nil {
		box, err := parseBox(*raw)
		if err != nil {
			return patch, err
		}
		patch.Box = &box
	}
	return patch, nil
}

func lookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "look",
		Short: "Set the camera overlay, audio mix and color correction",
		Long:  "Only the flags you pass change; the rest keep their current value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.UpdateLook(ctx, lookUpdateFromFlags(cmd, s.Project().EDL))
			})
		},
	}
	f := cmd.Flags()
	f.Bool("camera", false, "show the camera overlay")
	f.String("camera-shape", "", "circle, rounded or square")
	f.String("camera-position", "", "top-left, top-right, bottom-left or bottom-right")
	f.Float64("camera-size", 0, "overlay size as a fraction of the frame")
	f.Float64("mic-gain", 0, "microphone gain")
	f.Float64("system-gain", 0, "system audio gain")
	f.Bool("mic-mute", false, "mute the microphone")
	f.Bool("system-mute", false, "mute system audio")
	f.Bool("noise-reduction", false, "apply noise reduction")
	f.Float64("brightness", 0, "brightness offset")
	f.Float64("contrast", 0, "contrast factor")
	f.Float64("saturation", 0, "saturation factor")
	f.Float64("temperature", 0, "color temperature offset")
	return cmd
}

func lookUpdateFromFlags(cmd *cobra.Command, cur domain.EditDecisionList) engine.LookUpdate {
	var u engine.LookUpdate
	f := cmd.Flags()
	if f.Changed("camera") || f.Changed("camera-shape") || f.Changed("camera-position") || f.Changed("camera-size") {
		cam := cur.CameraOverlay
		cam.Enabled, _ = boolOr(cmd, "camera", cam.Enabled)
		if v := changedString(cmd, "camera-shape"); v != nil {
			cam.Shape = *v
		}
		if v := changedString(cmd, "camera-position"); v != nil {
			cam.Position = *v
		}
		if v := changedFloat(cmd, "camera-size"); v != nil {
			cam.Size = *v
		}
		u.CameraOverlay = &cam
	}
	mix, mixChanged := cur.AudioMix, false
	if v := changedFloat(cmd, "mic-gain"); v != nil {
		mix.MicrophoneGain, mixChanged = *v, true
	}
	if v := changedFloat(cmd, "system-gain"); v != nil {
		mix.SystemGain, mixChanged = *v, true
	}
	var ok bool
	if mix.MicrophoneMute, ok = boolOr(cmd, "mic-mute", mix.MicrophoneMute); ok {
		mixChanged = true
	}
	if mix.SystemMute, ok = boolOr(cmd, "system-mute", mix.SystemMute); ok {
		mixChanged = true
	}
	if mix.NoiseReduction, ok = boolOr(cmd, "noise-reduction", mix.NoiseReduction); ok {
		mixChanged = true
	}
	if mixChanged {
		u.AudioMix = &mix
	}
	cc, ccChanged := cur.ColorCorrection, false
	for name, dst := range map[string]*float64{
		"brightness":  &cc.Brightness,
		"contrast":    &cc.Contrast,
		"saturation":  &cc.Saturation,
		"temperature": &cc.Temperature,
	} {
		if v := changedFloat(cmd, name); v != nil {
			*dst, ccChanged = *v, true
		}
	}
	if ccChanged {
		u.ColorCorrection = &cc
	}
	return u
}

func historyCmd() *cobra.Command {
	hist := &cobra.Command{
		Use:   "history",
		Short: "Undo and redo edits",
	}
	hist.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show undo and redo depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				past, future := s.HistoryDepth()
				if viper.GetBool("json") {
					return printJSON(map[string]int{"undo": past, "redo": future})
				}
				fmt.Printf("undo: %d\nredo: %d\n", past, future)
				return nil
			})
		},
	})
	hist.AddCommand(&cobra.Command{
		Use:   "undo",
		Short: "Revert the last edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.Undo(ctx)
			})
		},
	})
	hist.AddCommand(&cobra.Command{
		Use:   "redo",
		Short: "Reapply the last undone edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.Redo(ctx)
			})
		},
	})
	return hist
}

func changedFloat(cmd *cobra.Command, name string) *float64 {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func changedString(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v := f.Value.String()
	return &v
}

func boolOr(cmd *cobra.Command, name string, cur bool) (bool, bool) {
	if !cmd.Flags().Changed(name) {
		return cur, false
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return cur, false
	}
	return v, true
}

func parseSeconds(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "s"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return v, nil
}

func parseBox(raw string) (domain.Box, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return domain.Box{}, fmt.Errorf("box must be x,y,width,height")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Box{}, fmt.Errorf("invalid box value %q", p)
		}
		vals[i] = v
	}
	return domain.Box{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
