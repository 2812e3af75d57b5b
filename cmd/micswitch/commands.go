package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/willywotz/micswitch/internal/audio"
	"github.com/willywotz/micswitch/internal/autostart"
	"github.com/willywotz/micswitch/internal/ui"
)

func devicesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := a.flow()
			if err != nil {
				return err
			}
			endpoints, err := listEndpoints(flow)
			if err != nil {
				return err
			}
			return printEndpoints(cmd.OutOrStdout(), endpoints)
		},
	}
}

func watchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print endpoint notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := a.flow()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s endpoints, press Ctrl+C to stop\n", flow)
			return watchEndpoints(cmd.Context(), flow, cmd.OutOrStdout())
		},
	}
}

func statusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the selected device and the preferred devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *audio.Service) error {
				st, err := svc.GetState()
				if err != nil {
					return err
				}
				return printState(cmd.OutOrStdout(), st)
			})
		},
	}
}

func muteCommand(a *app, muted bool) *cobra.Command {
	use, short := "mute [id]", "Mute the selected device, or the endpoint with the given id"
	if !muted {
		use, short = "unmute [id]", "Unmute the selected device, or the endpoint with the given id"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flow, err := a.flow()
				if err != nil {
					return err
				}
				return setEndpointMute(flow, args[0], muted)
			}
			return a.withService(cmd.Context(), func(svc *audio.Service) error {
				if err := svc.SetMuted(muted); err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), svc)
			})
		},
	}
}

func toggleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle mute on the selected device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *audio.Service) error {
				if err := svc.ToggleSelected(); err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), svc)
			})
		},
	}
}

func selectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Select the device the hotkey toggles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *audio.Service) error {
				if err := svc.SetDevice(args[0]); err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), svc)
			})
		},
	}
}

func prefCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pref <id>",
		Short: "Add or remove a preferred device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *audio.Service) error {
				if err := svc.TogglePref(args[0]); err != nil {
					return err
				}
				st, err := svc.GetState()
				if err != nil {
					return err
				}
				return printState(cmd.OutOrStdout(), st)
			})
		},
	}
}

func levelCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "level [id] <percent>",
		Short: "Set the master volume of an endpoint, the default one when no id is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.flow()
			if err != nil {
				return err
			}
			var id string
			if len(args) == 2 {
				id = args[0]
			}
			level, err := parsePercent(args[len(args)-1])
			if err != nil {
				return err
			}
			return setEndpointLevel(flow, id, level)
		},
	}
}

func autostartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage launching at logon",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Start minimized at logon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return autostart.Enable("--minimized")
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Do not start at logon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return autostart.Disable()
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the logon entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := autostart.Query()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), st)
				return nil
			},
		},
	)
	return cmd
}

// parsePercent reads "0".."100", optionally suffixed with %, as a scalar level.
func parsePercent(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 32)
	if err != nil || v < 0 || v > 100 {
		return 0, fmt.Errorf("invalid level %q: want a percentage between 0 and 100", s)
	}
	return float32(v / 100), nil
}

// endpointInfo is one row of the devices listing.
type endpointInfo struct {
	ID        string
	Name      string
	State     string
	Default   bool
	HasVolume bool
	Muted     bool
	Level     float32
}

func printEndpoints(w io.Writer, endpoints []endpointInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tDEFAULT\tMUTED\tLEVEL\tID")
	for _, e := range endpoints {
		def := ""
		if e.Default {
			def = "*"
		}
		muted, level := "-", "-"
		if e.HasVolume {
			muted = strconv.FormatBool(e.Muted)
			level = fmt.Sprintf("%.0f%%", e.Level*100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Name, e.State, def, muted, level, e.ID)
	}
	return tw.Flush()
}

func printStatus(w io.Writer, svc *audio.Service) error {
	st, err := svc.GetState()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, ui.Status(st))
	return err
}

func printState(w io.Writer, st audio.State) error {
	fmt.Fprintln(w, ui.Status(st))
	if len(st.Prefs) == 0 {
		_, err := fmt.Fprintln(w, "no preferred devices")
		return err
	}
	ids := make([]string, 0, len(st.Prefs))
	for id := range st.Prefs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFERRED\tPRESENT\tID")
	for _, id := range ids {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", st.Prefs[id].Name, st.Present(id), id)
	}
	return tw.Flush()
}
