package screening

import "context"

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Submit scores a completed response vector and stores the assessment for
// trend history. The stored record carries a copy of the responses; the
// result itself is always derivable from them.
func (s *Service) Submit(ctx context.Context, userID uint64, inst Instrument, responses []int) (*Assessment, Result, error) {
	res, err := Score(inst, responses)
	if err != nil {
		return nil, Result{}, err
	}

	a := &Assessment{
		UserID:     userID,
		Instrument: inst,
		Responses:  append([]int(nil), responses...),
		TotalScore: res.TotalScore,
		RiskLevel:  res.RiskLevel,
		IsHighRisk: res.IsHighRisk,
		IsCrisis:   res.IsCrisis,
	}
	if err := s.repo.CreateAssessment(ctx, a); err != nil {
		return nil, Result{}, err
	}
	return a, res, nil
}

func (s *Service) History(ctx context.Context, userID uint64, inst Instrument, limit int) ([]Assessment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListAssessments(ctx, userID, inst, limit)
}

func (s *Service) Latest(ctx context.Context, userID uint64, inst Instrument) (*Assessment, error) {
	return s.repo.LatestAssessment(ctx, userID, inst)
}
