package responses

import (
	"context"
	"time"

	"formulate-backend/src/models"
	"formulate-backend/src/services/forms"
	"formulate-backend/src/services/validation"
	"formulate-backend/src/services/visibility"
	"formulate-backend/src/utils"
)

// ValidatePage checks one page of an open form while the respondent moves
// through it.
func (s *Service) ValidatePage(ctx context.Context, formID string, page int, req models.ValidatePageRequest) (validation.Result, error) {
	form, err := s.openForm(ctx, formID)
	if err != nil {
		return validation.Result{}, err
	}
	if page < 0 || page >= len(form.Pages) {
		return validation.Result{}, ErrPageOutOfRange
	}
	answers := req.Answers
	if answers == nil {
		answers = models.Answers{}
	}
	return validation.ValidatePage(form, page, answers, req.Email), nil
}

// Visibility reports, per field id, whether the field is shown for the
// answers given so far.
func (s *Service) Visibility(ctx context.Context, formID string, answers models.Answers) (map[string]bool, error) {
	form, err := s.openForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = models.Answers{}
	}
	return visibility.New(form, answers).Visible(), nil
}

func (s *Service) openForm(ctx context.Context, hex string) (*models.Form, error) {
	id, err := parseID(hex)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := forms.CheckOpen(form, s.now().UTC()); err != nil {
		return nil, err
	}
	return form, nil
}

// RedisGuard claims submissions with a Redis key that expires after TTL.
type RedisGuard struct {
	TTL time.Duration
}

func (g RedisGuard) Claim(ctx context.Context, formID, ip string) (bool, error) {
	return utils.ClaimSubmission(ctx, formID, ip, g.TTL)
}

func (g RedisGuard) Release(ctx context.Context, formID, ip string) {
	utils.ReleaseSubmission(ctx, formID, ip)
}
