package loans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/internal/copies"
	"github.com/angelmondragon/librarian-backend/internal/members"
	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
)

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Runs the full issue/return cycle against a real database capped at one
// connection. Every write in the cycle, the member activity stamp included,
// has to ride the transaction for this to complete.
func TestLoanLifecycleOnDatabase(t *testing.T) {
	db := setupLoansTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(db),
		Tx:          dbTxRunner{db: db},
		Copies:      copies.NewRepository(db),
		Members:     members.NewRepository(db),
		Circulation: testCirculationConfig(),
	})
	require.NoError(t, err)
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return now }

	book := seedBook(t, db, "Lifecycle")
	copyRow := seedCopy(t, db, book, enums.CopyStatusAvailable)
	member := seedMember(t, db, "cycle@example.com")

	ctx := context.Background()
	loan, err := svc.Issue(ctx, IssueInput{CopyID: copyRow.ID, MemberID: member.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.LoanStatusIssued, loan.Status)

	var stamped models.Member
	require.NoError(t, db.First(&stamped, "id = ?", member.ID).Error)
	require.NotNil(t, stamped.LastActivityAt)
	assert.True(t, stamped.LastActivityAt.Equal(now), "got %s", stamped.LastActivityAt)

	var claimed models.BookCopy
	require.NoError(t, db.First(&claimed, "id = ?", copyRow.ID).Error)
	assert.Equal(t, enums.CopyStatusIssued, claimed.Status)

	returned, err := svc.Return(ctx, loan.ID, ReturnInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.LoanStatusReturned, returned.Status)

	var released models.BookCopy
	require.NoError(t, db.First(&released, "id = ?", copyRow.ID).Error)
	assert.Equal(t, enums.CopyStatusAvailable, released.Status)
}
