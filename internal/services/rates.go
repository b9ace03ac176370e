package services

import (
	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/models"
)

// RateSource names the cascade level that produced an effective rate.
type RateSource string

const (
	RateSourceMatter      RateSource = "matter"
	RateSourceAncestor    RateSource = "ancestor"
	RateSourceUserDefault RateSource = "user_default"
	// RateSourceNone means no level of the cascade defines a rate; amounts
	// are undefined, not zero.
	RateSourceNone RateSource = "none"
)

// maxDepth bounds every parent-chain walk. A chain longer than this can only
// mean a corrupted parent link, which is reported instead of looped on.
const maxDepth = 128

// resolveRate walks the cascade for one matter against the current arena:
// the matter's own rate, then the nearest ancestor with a rate, then the
// owner's default. Returns (nil, RateSourceNone) when the cascade is empty.
// Resolution reads only current state, so a move, merge or rate edit is
// reflected on the very next call.
func resolveRate(arena map[int64]*models.Matter, user *models.User, matterID int64) (*float64, RateSource, error) {
	m, ok := arena[matterID]
	if !ok {
		return nil, RateSourceNone, common.ErrNotFound
	}

	if m.HourlyRate != nil {
		return m.HourlyRate, RateSourceMatter, nil
	}

	cur := m.ParentID
	for depth := 0; cur != nil; depth++ {
		if depth >= maxDepth {
			return nil, RateSourceNone, common.Validationf("parent chain of matter %d exceeds depth %d", matterID, maxDepth)
		}
		p, ok := arena[*cur]
		if !ok {
			return nil, RateSourceNone, common.Validationf("matter %d has dangling parent %d", matterID, *cur)
		}
		if p.HourlyRate != nil {
			return p.HourlyRate, RateSourceAncestor, nil
		}
		cur = p.ParentID
	}

	if user.DefaultHourlyRate != nil {
		return user.DefaultHourlyRate, RateSourceUserDefault, nil
	}

	return nil, RateSourceNone, nil
}

// amountFor converts a duration in seconds into a chargeable amount under
// the given rate. A nil rate yields a nil amount so an undefined rate is
// never conflated with a zero one.
func amountFor(seconds float64, rate *float64) *float64 {
	if rate == nil {
		return nil
	}
	amount := seconds / 3600 * (*rate)
	return &amount
}
