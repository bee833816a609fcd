package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilboard/veilboard/models"
)

func TestCanMessage_SelfIsAlwaysDenied(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	user := newTestUser(t, db, "u1")
	setVip(t, db, user.ID, testBase.Add(time.Hour))

	decision, err := svc.CanMessage(user.ID, user.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonSelfMessage, decision.Reason)
}

func TestCanMessage_NeitherSideVipNoThread(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")

	decision, err := svc.CanMessage(a.ID, b.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonPrivilegeInsufficient, decision.Reason)
	assert.NotEmpty(t, decision.Hint)
}

func TestCanMessage_SenderVipAllows(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")
	setVip(t, db, a.ID, testBase.Add(time.Hour))

	decision, err := svc.CanMessage(a.ID, b.ID, testBase)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanMessage_RecipientVipAllows(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")
	setVip(t, db, b.ID, testBase.Add(time.Hour))

	decision, err := svc.CanMessage(a.ID, b.ID, testBase)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanMessage_ExistingThreadSurvivesLapsedGrant(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")
	setVip(t, db, a.ID, testBase.Add(-time.Hour)) // expired

	// The thread was opened while the grant was active; the reply direction
	// also counts.
	require.NoError(t, db.Create(&models.Message{SenderID: a.ID, RecipientID: b.ID, Content: "hi"}).Error)

	decision, err := svc.CanMessage(a.ID, b.ID, testBase)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = svc.CanMessage(b.ID, a.ID, testBase)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanMessage_ThreadWithThirdPartyDoesNotCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")
	c := newTestUser(t, db, "c")
	require.NoError(t, db.Create(&models.Message{SenderID: a.ID, RecipientID: c.ID, Content: "hi"}).Error)

	decision, err := svc.CanMessage(a.ID, b.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanMessage_ExpiredGrantOnBothSidesDenies(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")
	setVip(t, db, a.ID, testBase.Add(-time.Minute))
	setVip(t, db, b.ID, testBase.Add(-time.Minute))

	decision, err := svc.CanMessage(a.ID, b.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonPrivilegeInsufficient, decision.Reason)
}

func TestCanDiscoverNearby_RequiresActiveGrant(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	user := newTestUser(t, db, "u1")

	decision, err := svc.CanDiscoverNearby(user.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonPrivilegeInsufficient, decision.Reason)

	setVip(t, db, user.ID, testBase.Add(time.Hour))
	decision, err = svc.CanDiscoverNearby(user.ID, testBase)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanDiscoverNearby_DeniesAtExactExpiryInstant(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	user := newTestUser(t, db, "u1")
	setVip(t, db, user.ID, testBase)

	decision, err := svc.CanDiscoverNearby(user.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanDiscoverNearby_NoThreadException(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	a := newTestUser(t, db, "a")
	b := newTestUser(t, db, "b")
	require.NoError(t, db.Create(&models.Message{SenderID: a.ID, RecipientID: b.ID, Content: "hi"}).Error)

	// Messaging history never substitutes for the grant on discovery.
	decision, err := svc.CanDiscoverNearby(a.ID, testBase)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}
