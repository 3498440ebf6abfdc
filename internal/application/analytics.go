package application

import (
	"context"
	"time"
)

// Dashboard aggregates an agent's application counts and completion
// timing for the analytics endpoints. JSON field names follow the
// dashboard client's camelCase convention.
type Dashboard struct {
	TotalApplications     int          `json:"totalApplications"`
	SubmittedApplications int          `json:"submittedApplications"`
	InReviewApplications  int          `json:"inReviewApplications"`
	ApprovedApplications  int          `json:"approvedApplications"`
	RejectedApplications  int          `json:"rejectedApplications"`
	AverageCompletionTime float64      `json:"averageCompletionTime"`
	WeeklyBreakdown       []WeekBucket `json:"weeklyBreakdown"`
}

// WeekBucket is one week's application count. The label is the week's
// starting day rendered as MM/DD.
type WeekBucket struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// Dashboard computes the agent's dashboard. When from/to are nil the
// weekly breakdown covers the four most recent weeks; counts always
// respect the given bounds.
func (s *Service) Dashboard(ctx context.Context, agentID string, from, to *time.Time) (*Dashboard, error) {
	base := Filter{AgentID: agentID, CreatedFrom: from, CreatedTo: to}

	d := &Dashboard{}
	var err error
	if d.TotalApplications, err = s.store.CountApplications(ctx, base); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		status Status
		dst    *int
	}{
		{StatusSubmitted, &d.SubmittedApplications},
		{StatusInReview, &d.InReviewApplications},
		{StatusApproved, &d.ApprovedApplications},
		{StatusRejected, &d.RejectedApplications},
	} {
		f := base
		st := c.status
		f.Status = &st
		if *c.dst, err = s.store.CountApplications(ctx, f); err != nil {
			return nil, err
		}
	}

	if d.AverageCompletionTime, err = s.averageCompletionMinutes(ctx, base); err != nil {
		return nil, err
	}
	if d.WeeklyBreakdown, err = s.weeklyBreakdown(ctx, agentID, from, to); err != nil {
		return nil, err
	}
	return d, nil
}

// WeeklySubmissions exposes the weekly breakdown on its own for the
// submissions chart endpoint.
func (s *Service) WeeklySubmissions(ctx context.Context, agentID string, from, to *time.Time) ([]WeekBucket, error) {
	return s.weeklyBreakdown(ctx, agentID, from, to)
}

// averageCompletionMinutes is the mean minutes between first bio
// submission and last document upload across approved applications that
// carry both timestamps.
func (s *Service) averageCompletionMinutes(ctx context.Context, f Filter) (float64, error) {
	apps, err := s.store.ListCompleted(ctx, f)
	if err != nil {
		return 0, err
	}
	var total float64
	var n int
	for _, app := range apps {
		if app.BioSubmittedAt == nil || app.DocumentUploadedAt == nil {
			continue
		}
		total += app.DocumentUploadedAt.Sub(*app.BioSubmittedAt).Minutes()
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

// weeklyBreakdown buckets application counts into calendar weeks,
// oldest week first. With explicit bounds every week in the range gets
// a bucket, empty weeks included; otherwise the four weeks ending now
// are reported.
func (s *Service) weeklyBreakdown(ctx context.Context, agentID string, from, to *time.Time) ([]WeekBucket, error) {
	buckets := []WeekBucket{}

	if from != nil && to != nil {
		end := to.UTC()
		for cur := from.UTC(); cur.Before(end); {
			start := cur
			next := cur.AddDate(0, 0, 7)
			// The final bucket never counts past the range end.
			if next.After(end) {
				next = end
			}
			count, err := s.store.CountApplications(ctx, Filter{
				AgentID:       agentID,
				CreatedFrom:   &start,
				CreatedBefore: &next,
			})
			if err != nil {
				return nil, err
			}
			buckets = append(buckets, WeekBucket{Week: start.Format("01/02"), Count: count})
			cur = next
		}
		return buckets, nil
	}

	now := s.now().UTC()
	for i := 3; i >= 0; i-- {
		start := now.AddDate(0, 0, -7*(i+1))
		end := now.AddDate(0, 0, -7*i)
		count, err := s.store.CountApplications(ctx, Filter{
			AgentID:       agentID,
			CreatedFrom:   &start,
			CreatedBefore: &end,
		})
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, WeekBucket{Week: start.Format("01/02"), Count: count})
	}
	return buckets, nil
}
