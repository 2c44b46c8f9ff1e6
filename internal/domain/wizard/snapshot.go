package wizard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
)

const snapshotVersion = 1

type snapshot struct {
	Version  int    `json:"version"`
	PromoSeq uint64 `json:"promoSeq"`
	State    State  `json:"state"`
}

// Snapshot serializes the store for the recovery snapshot.
func (s *Store) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, PromoSeq: s.promoSeq, State: s.state})
	if err != nil {
		return nil, fmt.Errorf("failed to encode wizard snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a store from a snapshot. An in-flight submission flag is not carried over.
func Restore(data []byte) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode wizard snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported wizard snapshot version %d", snap.Version)
	}
	st := snap.State
	if st.CompletedSteps == nil {
		st.CompletedSteps = map[Step]bool{}
	}
	if st.Passengers == nil {
		st.Passengers = []Passenger{}
	}
	if st.Services == nil {
		st.Services = serviceline.Collection{}
	}
	if !st.CurrentStep.IsValid() {
		st.CurrentStep = StepClient
	}
	if st.Promo.Status == "" {
		st.Promo.Status = PromoIdle
	}
	st.IsSubmitting = false
	return &Store{state: st, promoSeq: snap.PromoSeq, now: time.Now}, nil
}
