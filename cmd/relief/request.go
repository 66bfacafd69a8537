package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relief/relief/internal/domain/emergency"
	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/upload"
	"github.com/relief/relief/pkg/geo"
)

// envLocator reads the position from RELIEF_LAT and RELIEF_LNG.
func envLocator(getenv func(string) string) geo.Locator {
	return geo.LocatorFunc(func(context.Context) (geo.Point, error) {
		lat, lng := getenv("RELIEF_LAT"), getenv("RELIEF_LNG")
		if lat == "" || lng == "" {
			return geo.Point{}, geo.ErrUnavailable
		}
		la, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return geo.Point{}, fmt.Errorf("RELIEF_LAT: %w", err)
		}
		ln, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return geo.Point{}, fmt.Errorf("RELIEF_LNG: %w", err)
		}
		return geo.NewPoint(la, ln), nil
	})
}

func (a *app) emergencyService() (*emergency.Service, error) {
	client, err := a.backend()
	if err != nil {
		return nil, err
	}
	svc := emergency.NewService(emergency.NewRequestRepoAPI(client), a.store, envLocator(a.getenv), a.logger)
	svc.SetMaxPhotoBytes(a.cfg.MaxPhotoBytes)
	svc.SetRedirectDelay(a.cfg.RedirectDelay)
	return svc, nil
}

func requestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "request",
		Aliases:     []string{"requests"},
		Short:       "Raise and follow emergency requests",
		Annotations: annotate(auth.Protected),
	}
	cmd.AddCommand(requestCreateCmd(a))
	cmd.AddCommand(requestListCmd(a))
	cmd.AddCommand(requestShowCmd(a))
	cmd.AddCommand(requestTrackCmd(a))
	cmd.AddCommand(requestFinalizeCmd(a))
	cmd.AddCommand(requestCancelCmd(a))
	cmd.AddCommand(requestPhotoCmd(a))
	return cmd
}

func requestCreateCmd(a *app) *cobra.Command {
	var (
		in       emergency.CreateInput
		other    bool
		lat, lng float64
		track    bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Raise an emergency request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			in.ForSelf = !other
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				p := geo.NewPoint(lat, lng)
				in.Location = &p
			}

			created, err := svc.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.notifier.Notify(cmd.Context(), created.Notice)
			fmt.Fprintf(a.out, "Request %s raised.\n", created.ID)
			if !track {
				return nil
			}

			select {
			case <-time.After(created.RedirectAfter):
			case <-cmd.Context().Done():
				return nil
			}
			return a.track(cmd.Context(), svc, created.ID)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&other, "for-other", false, "raise the request for someone else")
	f.StringVar(&in.PatientName, "name", "", "patient name (defaults to yours when raising for yourself)")
	f.StringVar(&in.PatientPhoneNumber, "phone", "", "patient phone (defaults to yours when raising for yourself)")
	f.Float64Var(&lat, "lat", 0, "latitude (falls back to RELIEF_LAT)")
	f.Float64Var(&lng, "lng", 0, "longitude (falls back to RELIEF_LNG)")
	f.BoolVar(&track, "track", false, "follow the request after raising it")
	return cmd
}

func requestListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your requests by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			items, err := svc.List(cmd.Context(), status)
			if err != nil {
				return err
			}
			renderSummaries(a.out, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(emergency.StatusPending), "pending, accepted, finalized, resolved or cancelled")
	return cmd
}

func requestShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a request and the hospitals that responded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			req, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderDetail(a.out, emergency.NewDetail(req))
			return nil
		},
	}
}

func requestTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <id>",
		Short: "Follow a request until it resolves or you press Ctrl-C",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			return a.track(cmd.Context(), svc, args[0])
		},
	}
}

// track polls one request and prints every change. An interrupt ends it
// cleanly; no fetch is made afterwards.
func (a *app) track(parent context.Context, svc *emergency.Service, id string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := emergency.NewTracker(id, svc, emergency.TrackerConfig{
		Interval:       a.cfg.PollInterval,
		StopOnTerminal: a.cfg.StopOnTerminal,
	}, a.notifier, a.logger)

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	for v := range tr.Updates() {
		renderView(a.out, v)
	}

	err := <-done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func requestFinalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <id> <hospital-id>",
		Short: "Choose the hospital that will receive the patient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			res, err := svc.Finalize(cmd.Context(), args[0], args[1])
			return a.actionDone(cmd.Context(), emergency.ActionFinalize, res, err)
		},
	}
}

func requestCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			res, err := svc.Cancel(cmd.Context(), args[0])
			return a.actionDone(cmd.Context(), emergency.ActionCancel, res, err)
		},
	}
}

func requestPhotoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <id> <image-file>",
		Short: "Attach a photo of the emergency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.emergencyService()
			if err != nil {
				return err
			}
			photo, err := upload.FromPath(args[1], svc.MaxPhotoBytes())
			if err != nil {
				return photoError(err, svc.MaxPhotoBytes())
			}
			res, err := svc.UploadPhoto(cmd.Context(), args[0], photo)
			return a.actionDone(cmd.Context(), emergency.ActionUploadPhoto, res, err)
		},
	}
}

func photoError(err error, limit int64) error {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return errors.New(upload.TooLargeMessage(limit))
	case errors.Is(err, upload.ErrInvalidContentType), errors.Is(err, upload.ErrEmptyFile):
		return errors.New("please select a valid image file")
	default:
		return err
	}
}

// actionDone reports a mutation: the failure notice, or the success notice
// and the refreshed request.
func (a *app) actionDone(ctx context.Context, action emergency.Action, res *emergency.ActionResult, err error) error {
	if err != nil {
		a.notifier.Notify(ctx, emergency.FailureNotice(action, err))
		return err
	}
	a.notifier.Notify(ctx, res.Notice)
	if res.Request != nil {
		renderDetail(a.out, emergency.NewDetail(res.Request))
	}
	return nil
}
