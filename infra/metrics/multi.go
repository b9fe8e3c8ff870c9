package metrics

import coremetrics "github.com/gridwatt/evrouter/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSession forwards session events to sinks that record them.
func (m *MultiSink) RecordSession(ev coremetrics.SessionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SessionRecorder); ok {
			if err := rec.RecordSession(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordStationStatus forwards load snapshots to sinks that record them.
func (m *MultiSink) RecordStationStatus(ev coremetrics.StationStatusEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.StationStatusRecorder); ok {
			if err := rec.RecordStationStatus(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordActiveRequests forwards the gauge value to sinks that record it.
func (m *MultiSink) RecordActiveRequests(n int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ActiveRequestsRecorder); ok {
			if err := rec.RecordActiveRequests(n); err != nil {
				return err
			}
		}
	}
	return nil
}
