package profile

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/notification"
	"github.com/relief/relief/internal/platform/validation"
)

var aadharRe = regexp.MustCompile(`^\d{12}$`)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "profile").Logger(),
		now:    time.Now,
	}
}

// Outcome is a mutation's notice plus the re-fetched profile. Profile is nil
// when the mutation went through but the re-fetch did not.
type Outcome struct {
	Profile *Profile            `json:"profile,omitempty"`
	Notice  notification.Notice `json:"notice"`
}

func (s *Service) Get(ctx context.Context) (*Profile, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// -- Personal information --

func (s *Service) UpdatePersonal(ctx context.Context, in PersonalUpdate) (*Outcome, error) {
	in.Name = validation.Clean(in.Name)
	if err := validation.Required("name", in.Name); err != nil {
		return nil, err
	}
	if err := validation.Phone("phoneNumber", in.PhoneNumber); err != nil {
		return nil, err
	}
	if in.BloodGroup != "" {
		if err := validation.OneOf("bloodGroup", in.BloodGroup, BloodGroups); err != nil {
			return nil, err
		}
	}
	if in.AadharNumber != "" && !aadharRe.MatchString(in.AadharNumber) {
		return nil, validation.New("aadharNumber", "Aadhar number must be 12 digits")
	}

	body := PersonalBody{
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		DOB:          in.DOB,
		BloodGroup:   in.BloodGroup,
		AadharNumber: in.AadharNumber,
		Address:      in.Address,
	}
	if in.Coordinates != nil {
		body.Coordinates = *in.Coordinates
	}
	if err := s.repo.UpdatePersonal(ctx, body); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.outcome(ctx, notification.Success("Personal Information Updated", "Personal information has been successfully updated.")), nil
}

// -- Emergency contacts --

func validateContact(c *Contact) error {
	c.Name = validation.Clean(c.Name)
	if err := validation.Required("name", c.Name); err != nil {
		return err
	}
	if err := validation.Phone("phoneNumber", c.PhoneNumber); err != nil {
		return err
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return validation.New("email", "Invalid email address")
		}
	}
	return validation.OneOf("relationship", c.Relationship, Relationships)
}

func (s *Service) AddContact(ctx context.Context, c Contact) (*Outcome, error) {
	if err := validateContact(&c); err != nil {
		return nil, err
	}
	if err := s.repo.AddContact(ctx, c); err != nil {
		return nil, fmt.Errorf("add emergency contact: %w", err)
	}
	return s.outcome(ctx, notification.Success("Emergency contact added", "")), nil
}

func (s *Service) UpdateContact(ctx context.Context, id string, c Contact) (*Outcome, error) {
	if err := validation.ObjectID("id", id); err != nil {
		return nil, err
	}
	if err := validateContact(&c); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateContact(ctx, id, c); err != nil {
		return nil, fmt.Errorf("update emergency contact: %w", err)
	}
	return s.outcome(ctx, notification.Success("Emergency Contact Updated", "")), nil
}

func (s *Service) DeleteContact(ctx context.Context, id string) (*Outcome, error) {
	if err := validation.ObjectID("id", id); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteContact(ctx, id); err != nil {
		return nil, fmt.Errorf("delete emergency contact: %w", err)
	}
	return s.outcome(ctx, notification.Success("Emergency contact deleted", "")), nil
}

// -- Medical history --

func (s *Service) validateHistory(item HistoryItem) error {
	if id := item.ItemID(); id != "" {
		if err := validation.ObjectID("itemId", id); err != nil {
			return err
		}
	}
	switch v := item.(type) {
	case *Disease:
		return validateDisease(*v)
	case Disease:
		return validateDisease(v)
	case *Allergy:
		return validation.Required("reason", v.Reason)
	case Allergy:
		return validation.Required("reason", v.Reason)
	case *Injury:
		return s.validateInjury(*v)
	case Injury:
		return s.validateInjury(v)
	default:
		return validation.New("kind", "unknown medical history entry")
	}
}

func validateDisease(d Disease) error {
	if err := validation.Required("name", d.Name); err != nil {
		return err
	}
	return validation.OneOf("status", d.Status, DiseaseStatuses)
}

func (s *Service) validateInjury(i Injury) error {
	if err := validation.Required("body_part", i.BodyPart); err != nil {
		return err
	}
	year := s.now().Year()
	if i.InjuryYear != 0 && (i.InjuryYear < year-MaxHistoryYears || i.InjuryYear > year) {
		return validation.New("injury_year", "Injury year is out of range")
	}
	if i.Surgery && i.SurgeryYear != 0 && (i.SurgeryYear < i.InjuryYear || i.SurgeryYear > year) {
		return validation.New("surgery_year", "Surgery year must fall between the injury year and now")
	}
	return nil
}

// MaxHistoryYears bounds how far back an injury year may go.
const MaxHistoryYears = 100

// SaveHistory creates or, when the item carries an id, updates a medical
// history entry.
func (s *Service) SaveHistory(ctx context.Context, item HistoryItem) (*Outcome, error) {
	if err := s.validateHistory(item); err != nil {
		return nil, err
	}
	if err := s.repo.SaveHistory(ctx, item); err != nil {
		return nil, fmt.Errorf("save %s: %w", item.Kind(), err)
	}
	verb := "Added"
	if item.ItemID() != "" {
		verb = "Updated"
	}
	return s.outcome(ctx, notification.Success(item.Kind().Title()+" "+verb, "")), nil
}

func (s *Service) DeleteHistory(ctx context.Context, kind Kind, id string) (*Outcome, error) {
	if err := validation.OneOf("kind", string(kind), Kinds); err != nil {
		return nil, err
	}
	if err := validation.ObjectID("id", id); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteHistory(ctx, kind, id); err != nil {
		return nil, fmt.Errorf("delete %s: %w", kind, err)
	}
	return s.outcome(ctx, notification.Success(kind.Title()+" Deleted", "")), nil
}

func (s *Service) outcome(ctx context.Context, n notification.Notice) *Outcome {
	p, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile re-fetch failed after mutation")
		return &Outcome{Notice: n}
	}
	return &Outcome{Profile: p, Notice: n}
}
