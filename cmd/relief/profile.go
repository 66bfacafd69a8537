package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relief/relief/internal/domain/profile"
	"github.com/relief/relief/internal/platform/auth"
)

func (a *app) profileService() (*profile.Service, error) {
	client, err := a.backend()
	if err != nil {
		return nil, err
	}
	return profile.NewService(profile.NewRepoAPI(client), a.logger), nil
}

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "profile",
		Short:       "View and edit your patient profile",
		Annotations: annotate(auth.Protected),
	}
	cmd.AddCommand(profileShowCmd(a))
	cmd.AddCommand(profileUpdateCmd(a))
	cmd.AddCommand(profileContactsCmd(a))
	cmd.AddCommand(profileHistoryCmd(a))
	return cmd
}

func (a *app) outcome(cmd *cobra.Command, out *profile.Outcome) {
	a.notifier.Notify(cmd.Context(), out.Notice)
	if out.Profile != nil {
		renderProfile(a.out, out.Profile)
	}
}

func profileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			p, err := svc.Get(cmd.Context())
			if err != nil {
				return err
			}
			renderProfile(a.out, p)
			return nil
		},
	}
}

// personalFrom seeds an update with the current values so that only the
// flags given change anything.
func personalFrom(p *profile.Profile) profile.PersonalUpdate {
	in := profile.PersonalUpdate{
		Name:         p.Name,
		PhoneNumber:  p.PhoneNumber,
		DOB:          p.DOB,
		BloodGroup:   p.BloodGroup,
		AadharNumber: p.AadharNumber,
		Address:      p.Address,
	}
	if p.Location != nil {
		c := p.Location.Coordinates
		in.Coordinates = &c
	}
	return in
}

func profileUpdateCmd(a *app) *cobra.Command {
	var (
		next     profile.PersonalUpdate
		lat, lng float64
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your personal information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			current, err := svc.Get(cmd.Context())
			if err != nil {
				return err
			}
			in := personalFrom(current)

			f := cmd.Flags()
			for flag, apply := range map[string]func(){
				"name":     func() { in.Name = next.Name },
				"phone":    func() { in.PhoneNumber = next.PhoneNumber },
				"dob":      func() { in.DOB = next.DOB },
				"blood":    func() { in.BloodGroup = next.BloodGroup },
				"aadhar":   func() { in.AadharNumber = next.AadharNumber },
				"locality": func() { in.Address.Locality = next.Address.Locality },
				"city":     func() { in.Address.City = next.Address.City },
				"state":    func() { in.Address.State = next.Address.State },
				"pincode":  func() { in.Address.Pincode = next.Address.Pincode },
			} {
				if f.Changed(flag) {
					apply()
				}
			}
			if f.Changed("lat") && f.Changed("lng") {
				in.Coordinates = &[2]float64{lat, lng}
			}

			out, err := svc.UpdatePersonal(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.outcome(cmd, out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&next.Name, "name", "", "full name")
	f.StringVar(&next.PhoneNumber, "phone", "", "10-digit phone number")
	f.StringVar(&next.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&next.BloodGroup, "blood", "", "blood group, e.g. O+")
	f.StringVar(&next.AadharNumber, "aadhar", "", "12-digit Aadhaar number")
	f.StringVar(&next.Address.Locality, "locality", "", "locality")
	f.StringVar(&next.Address.City, "city", "", "city")
	f.StringVar(&next.Address.State, "state", "", "state")
	f.StringVar(&next.Address.Pincode, "pincode", "", "pincode")
	f.Float64Var(&lat, "lat", 0, "home latitude")
	f.Float64Var(&lng, "lng", 0, "home longitude")
	return cmd
}

// -- Emergency contacts --

func profileContactsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage emergency contacts",
	}

	contactFlags := func(c *cobra.Command, ct *profile.Contact) {
		f := c.Flags()
		f.StringVar(&ct.Name, "name", "", "contact name")
		f.StringVar(&ct.PhoneNumber, "phone", "", "10-digit phone number")
		f.StringVar(&ct.Email, "email", "", "email address")
		f.StringVar(&ct.Relationship, "relationship", "", "Father, Mother, Spouse, Sibling, Child, Friend or Other")
	}

	var added profile.Contact
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an emergency contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			out, err := svc.AddContact(cmd.Context(), added)
			if err != nil {
				return err
			}
			a.outcome(cmd, out)
			return nil
		},
	}
	contactFlags(add, &added)

	var changed profile.Contact
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			current, err := svc.Get(cmd.Context())
			if err != nil {
				return err
			}
			var ct *profile.Contact
			for i := range current.EmergencyContacts {
				if current.EmergencyContacts[i].ID == args[0] {
					ct = &current.EmergencyContacts[i]
				}
			}
			if ct == nil {
				return fmt.Errorf("no emergency contact with id %s", args[0])
			}

			f := cmd.Flags()
			if f.Changed("name") {
				ct.Name = changed.Name
			}
			if f.Changed("phone") {
				ct.PhoneNumber = changed.PhoneNumber
			}
			if f.Changed("email") {
				ct.Email = changed.Email
			}
			if f.Changed("relationship") {
				ct.Relationship = changed.Relationship
			}

			out, err := svc.UpdateContact(cmd.Context(), args[0], *ct)
			if err != nil {
				return err
			}
			a.outcome(cmd, out)
			return nil
		},
	}
	contactFlags(update, &changed)

	remove := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an emergency contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			out, err := svc.DeleteContact(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.outcome(cmd, out)
			return nil
		},
	}

	cmd.AddCommand(add, update, remove)
	return cmd
}

// -- Medical history --

func profileHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage medical history (disease, allergy, injury)",
	}

	var data string
	save := &cobra.Command{
		Use:   "save <kind>",
		Short: "Add or update a medical history entry from JSON",
		Long: `Add or update a medical history entry. The entry is given as JSON with --data,
for example:

  relief profile history save disease --data '{"name":"Asthma","status":"current"}'

An entry carrying "_id" updates the existing item.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := profile.NewHistoryItem(profile.Kind(args[0]))
			if err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(data), item); err != nil {
				return fmt.Errorf("invalid --data: %w", err)
			}
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			out, err := svc.SaveHistory(cmd.Context(), item)
			if err != nil {
				return err
			}
			a.outcome(cmd, out)
			return nil
		},
	}
	save.Flags().StringVar(&data, "data", "{}", "entry as a JSON object")

	remove := &cobra.Command{
		Use:     "delete <kind> <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a medical history entry",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService()
			if err != nil {
				return err
			}
			out, err := svc.DeleteHistory(cmd.Context(), profile.Kind(args[0]), args[1])
			if err != nil {
				return err
			}
			a.outcome(cmd, out)
			return nil
		},
	}

	cmd.AddCommand(save, remove)
	return cmd
}
