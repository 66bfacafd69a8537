package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/relief/relief/internal/domain/emergency"
	"github.com/relief/relief/internal/domain/profile"
	"github.com/relief/relief/internal/platform/auth"
)

const timeLayout = "02 Jan 2006 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderIdentity(w io.Writer, id auth.Identity) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name:\t%s\n", orDash(id.Name))
	fmt.Fprintf(tw, "Phone:\t%s\n", orDash(id.PhoneNumber))
	fmt.Fprintf(tw, "User ID:\t%s\n", orDash(id.UserID))
	tw.Flush()
}

func renderSummaries(w io.Writer, items []emergency.Summary) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No requests.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tPATIENT\tFOR\tSTATUS\tCREATED")
	for _, s := range items {
		who := "self"
		if !s.ForSelf {
			who = "other"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.PatientName, who, s.Status.Label(), s.CreatedAt.Local().Format(timeLayout))
	}
	tw.Flush()
}

func actionNames(actions []emergency.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func renderDetail(w io.Writer, d *emergency.Detail) {
	r := d.Request
	tw := newTable(w)
	fmt.Fprintf(tw, "Request:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status.Label())
	fmt.Fprintf(tw, "Patient:\t%s (%s)\n", r.PatientName, orDash(r.PatientPhoneNumber))
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Raised:\t%s\n", r.CreatedAt.Local().Format(timeLayout))
	}
	fmt.Fprintf(tw, "Photo:\t%s\n", orDash(r.Photo))
	fmt.Fprintf(tw, "Actions:\t%s\n", actionNames(d.Actions))
	tw.Flush()

	if len(d.Hospitals) == 0 {
		fmt.Fprintln(w, "\nNo hospital has responded yet.")
		return
	}
	for _, card := range d.Hospitals {
		renderHospital(w, card)
	}
}

func renderHospital(w io.Writer, card emergency.HospitalCard) {
	h := card.Hospital
	fmt.Fprintf(w, "\n%s\n", h.Name)
	tw := newTable(w)
	fmt.Fprintf(tw, "  ID:\t%s\n", h.ID)
	if h.Address != nil {
		fmt.Fprintf(tw, "  Address:\t%s\n", h.Address)
	}
	for _, p := range h.PhoneNumbers {
		fmt.Fprintf(tw, "  %s:\t%s\n", orDash(p.Label), p.Number)
	}
	fmt.Fprintf(tw, "  Ambulance:\t%s\n", yesNo(h.AmbulanceAvailable))
	for _, b := range h.BedData {
		fmt.Fprintf(tw, "  %s beds:\t%d of %d free\n", b.Type, b.Available, b.Count)
	}
	if len(card.BloodUnits) > 0 {
		units := make([]string, len(card.BloodUnits))
		for i, u := range card.BloodUnits {
			units[i] = fmt.Sprintf("%s %d", u.Group, u.Units)
		}
		fmt.Fprintf(tw, "  Blood:\t%s\n", strings.Join(units, "  "))
	}
	if card.NavigationURL != "" {
		fmt.Fprintf(tw, "  Directions:\t%s\n", card.NavigationURL)
	}
	fmt.Fprintf(tw, "  Actions:\t%s\n", actionNames(card.Actions))
	tw.Flush()
}

// renderView prints one tracker update.
func renderView(w io.Writer, v emergency.View) {
	switch v.State {
	case emergency.StateLoading:
		fmt.Fprintln(w, "Loading request...")
		return
	case emergency.StateError:
		fmt.Fprintf(w, "Update failed: %s\n", v.Error)
		if v.Detail == nil {
			return
		}
		fmt.Fprintln(w, "Showing the last known status.")
	default:
		fmt.Fprintf(w, "\n-- %s --\n", v.FetchedAt.Local().Format(time.Kitchen))
	}
	if v.Detail != nil && v.State == emergency.StateLoaded {
		renderDetail(w, v.Detail)
	}
	if v.Stopped {
		fmt.Fprintln(w, "Tracking stopped.")
	}
}

func renderProfile(w io.Writer, p *profile.Profile) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Phone:\t%s\n", p.PhoneNumber)
	fmt.Fprintf(tw, "Date of birth:\t%s\n", orDash(p.DOB))
	fmt.Fprintf(tw, "Blood group:\t%s\n", orDash(p.BloodGroup))
	fmt.Fprintf(tw, "Aadhaar:\t%s\n", orDash(p.AadharNumber))
	addr := strings.Join(nonEmpty(p.Address.Locality, p.Address.City, p.Address.State, p.Address.Pincode), ", ")
	fmt.Fprintf(tw, "Address:\t%s\n", orDash(addr))
	tw.Flush()

	fmt.Fprintln(w, "\nEmergency contacts")
	if len(p.EmergencyContacts) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		tw = newTable(w)
		fmt.Fprintln(tw, "  ID\tNAME\tPHONE\tRELATIONSHIP\tEMAIL")
		for _, c := range p.EmergencyContacts {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.PhoneNumber, c.Relationship, orDash(c.Email))
		}
		tw.Flush()
	}

	h := p.MedicalHistory
	fmt.Fprintln(w, "\nMedical history")
	if len(h.Diseases)+len(h.Allergies)+len(h.Injuries) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	tw = newTable(w)
	for _, d := range h.Diseases {
		fmt.Fprintf(tw, "  disease\t%s\t%s (%s)\n", d.ID, d.Name, d.Status)
	}
	for _, al := range h.Allergies {
		fmt.Fprintf(tw, "  allergy\t%s\t%s\n", al.ID, al.Reason)
	}
	for _, in := range h.Injuries {
		fmt.Fprintf(tw, "  injury\t%s\t%s, recovered: %s\n", in.ID, in.BodyPart, yesNo(in.Recovered))
	}
	tw.Flush()
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
