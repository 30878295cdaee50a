package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/comunidad/residence-service/internal/dtos"
	"github.com/comunidad/residence-service/internal/metrics"
	"github.com/comunidad/residence-service/internal/repositories"
	"github.com/comunidad/residence-service/internal/utils"
)

// ConsistencyService detects residences whose status, occupant and
// reassignment history disagree. It reports; it never repairs.
type ConsistencyService struct {
	residenceRepo repositories.ResidenceRepository
	historyRepo   repositories.ReassignmentHistoryRepository
	now           func() time.Time
}

func NewConsistencyService(
	residenceRepo repositories.ResidenceRepository,
	historyRepo repositories.ReassignmentHistoryRepository,
) *ConsistencyService {
	return &ConsistencyService{
		residenceRepo: residenceRepo,
		historyRepo:   historyRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *ConsistencyService) Audit(ctx context.Context) (*dtos.ConsistencyReport, error) {
	residences, err := s.residenceRepo.ListAll(ctx)
	if err != nil {
		return nil, utils.NewInternalError("Error al auditar residencias", err)
	}
	latest, err := s.historyRepo.LatestPerResidence(ctx)
	if err != nil {
		return nil, utils.NewInternalError("Error al auditar residencias", err)
	}

	report := &dtos.ConsistencyReport{
		CheckedAt:  s.now().Format(time.RFC3339),
		Residences: len(residences),
		Issues:     []dtos.ConsistencyIssue{},
	}
	counts := map[string]int{}

	for _, r := range residences {
		if !r.OccupancyConsistent() {
			report.Issues = append(report.Issues, dtos.ConsistencyIssue{
				Kind:        dtos.IssueStatusMismatch,
				ResidenceID: r.ID,
				UnitNumber:  r.UnitNumber,
				Status:      r.Status,
				OccupantID:  r.OccupantID,
			})
			counts[string(dtos.IssueStatusMismatch)]++
		}
		// Residences never reassigned have no history to compare against.
		if h, ok := latest[r.ID]; ok && !sameRef(h.NewOccupantID, r.OccupantID) {
			report.Issues = append(report.Issues, dtos.ConsistencyIssue{
				Kind:         dtos.IssueHistoryMismatch,
				ResidenceID:  r.ID,
				UnitNumber:   r.UnitNumber,
				Status:       r.Status,
				OccupantID:   r.OccupantID,
				LastRecorded: h.NewOccupantID,
			})
			counts[string(dtos.IssueHistoryMismatch)]++
		}
	}

	metrics.SetConsistencyIssues(counts, string(dtos.IssueStatusMismatch), string(dtos.IssueHistoryMismatch))
	return report, nil
}

// RunScheduledAudit is the cron entry point. Failures are logged only.
func (s *ConsistencyService) RunScheduledAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.Audit(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Consistency audit failed")
		return
	}
	entry := utils.Logger.WithFields(logrus.Fields{
		"residences": report.Residences,
		"issues":     len(report.Issues),
	})
	if len(report.Issues) > 0 {
		for _, issue := range report.Issues {
			utils.Logger.WithFields(logrus.Fields{
				"kind":         issue.Kind,
				"residence_id": issue.ResidenceID,
				"unit":         issue.UnitNumber,
			}).Warn("Residence occupancy inconsistency")
		}
		entry.Warn("Consistency audit found issues")
		return
	}
	entry.Info("Consistency audit clean")
}
