package usecase

import (
	"sync"

	models "CrossImpact/internal/domain/models"
)

// ReportStore holds the most recent batch report for the results API.
type ReportStore struct {
	mu     sync.RWMutex
	report *models.BatchReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Set replaces the stored report.
func (s *ReportStore) Set(r *models.BatchReport) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

// Latest returns the stored report, or nil if no run has completed.
func (s *ReportStore) Latest() *models.BatchReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}
