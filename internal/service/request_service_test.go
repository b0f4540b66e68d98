package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequestNotifiesOnlyOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	colleague := env.member(t, "colleague@acme.io")
	env.affiliate(t, colleague, owner)
	item := env.item(t, owner, "Laptop", 3)
	requester := env.member(t, "m@acme.io")

	before, err := env.notifications.UnreadCount(ctx, colleague.ID)
	require.NoError(t, err)

	req, err := env.requests.CreateRequest(ctx, requester.Email, RequestInput{ItemID: item.ID, Note: "for travel"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, requester.Email, req.EmployeeEmail)
	assert.Equal(t, item.Name, req.ItemName)
	assert.Equal(t, owner.ID, req.CompanyID)
	assert.Nil(t, req.ApprovedAt)

	ownerViews, err := env.notifications.ListForRecipient(ctx, owner.ID)
	require.NoError(t, err)
	require.NotEmpty(t, ownerViews)
	assert.Equal(t, model.NotificationAssetRequest, ownerViews[0].Type)
	assert.Equal(t, req.ID, ownerViews[0].RequestID)

	after, err := env.notifications.UnreadCount(ctx, colleague.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	requesterViews, err := env.notifications.ListForRecipient(ctx, requester.ID)
	require.NoError(t, err)
	assert.Empty(t, requesterViews)
}

func TestCreateRequestValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner := env.owner(t, "o@acme.io")
	item := env.item(t, owner, "Laptop", 1)
	member := env.member(t, "m@acme.io")

	_, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.requests.CreateRequest(ctx, "ghost@acme.io", RequestInput{ItemID: item.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveEndToEnd(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	require.Equal(t, 5, owner.PackageLimit)
	require.Equal(t, 0, owner.CurrentEmployees)
	member := env.member(t, "m@acme.io")
	item := env.item(t, owner, "Laptop", 3)

	req, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	res, err := env.requests.ApproveForOwner(ctx, owner.ID, req.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyApproved)
	assert.Equal(t, 1, res.CurrentEmployees)
	assert.Equal(t, 5, res.PackageLimit)
	assert.Equal(t, 2, res.ItemQuantity)
	assert.Equal(t, model.RequestApproved, res.Request.Status)
	assert.NotNil(t, res.Request.ApprovedAt)

	assert.Equal(t, 1, env.reload(t, owner.ID).CurrentEmployees)
	assert.Equal(t, []string{owner.ID}, []string(env.reload(t, member.ID).AffiliatedCompanies))
	got, err := env.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	views, err := env.notifications.ListForRecipient(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.NotificationRequestApproved, views[0].Type)
}

func TestApproveTwiceHasNoFurtherEffect(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	member := env.member(t, "m@acme.io")
	item := env.item(t, owner, "Laptop", 3)
	req, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	_, err = env.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	again, err := env.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyApproved)
	assert.Equal(t, 2, again.ItemQuantity)
	assert.Equal(t, 1, again.CurrentEmployees)

	assert.Len(t, env.reload(t, member.ID).AffiliatedCompanies, 1)
	got, err := env.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestApproveSecondItemKeepsSingleAffiliation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	member := env.member(t, "m@acme.io")
	laptop := env.item(t, owner, "Laptop", 3)
	monitor := env.item(t, owner, "Monitor", 3)

	for _, item := range []*model.Item{laptop, monitor} {
		req, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: item.ID})
		require.NoError(t, err)
		res, err := env.requests.Approve(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, res.CurrentEmployees)
	}
	assert.Equal(t, []string{owner.ID}, []string(env.reload(t, member.ID).AffiliatedCompanies))
}

func TestApproveBlockedAtCapacity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	for i := 0; i < 5; i++ {
		env.affiliate(t, env.member(t, fmt.Sprintf("m%d@acme.io", i)), owner)
	}
	require.Equal(t, 5, env.reload(t, owner.ID).CurrentEmployees)

	item := env.item(t, owner, "Laptop", 3)
	newcomer := env.member(t, "new@acme.io")
	req, err := env.requests.CreateRequest(ctx, newcomer.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	_, err = env.requests.Approve(ctx, req.ID)
	require.Error(t, err)
	limit, ok := IsLimitReached(err)
	require.True(t, ok)
	assert.Equal(t, 5, limit.Current)
	assert.Equal(t, 5, limit.Limit)

	stored, err := env.store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, stored.Status)
	assert.Nil(t, stored.ApprovedAt)
	assert.Empty(t, env.reload(t, newcomer.ID).AffiliatedCompanies)
	assert.Equal(t, 5, env.reload(t, owner.ID).CurrentEmployees)
	got, err := env.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
}

func TestApproveBelowCapacity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	for i := 0; i < 3; i++ {
		env.affiliate(t, env.member(t, fmt.Sprintf("m%d@acme.io", i)), owner)
	}
	item := env.item(t, owner, "Laptop", 3)
	newcomer := env.member(t, "new@acme.io")
	req, err := env.requests.CreateRequest(ctx, newcomer.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	res, err := env.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.CurrentEmployees)
	assert.Equal(t, 2, res.ItemQuantity)
}

func TestApproveRules(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	stranger := env.owner(t, "o@other.io")
	member := env.member(t, "m@acme.io")
	item := env.item(t, owner, "Laptop", 3)
	req, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	_, err = env.requests.ApproveForOwner(ctx, stranger.ID, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.requests.Approve(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	rejected := model.RequestRejected
	_, err = env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{Status: &rejected})
	require.NoError(t, err)
	_, err = env.requests.Approve(ctx, req.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateRequestCannotBypassApproval(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	for i := 0; i < 5; i++ {
		env.affiliate(t, env.member(t, fmt.Sprintf("m%d@acme.io", i)), owner)
	}
	item := env.item(t, owner, "Laptop", 3)
	newcomer := env.member(t, "new@acme.io")
	req, err := env.requests.CreateRequest(ctx, newcomer.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	approved := model.RequestApproved
	_, err = env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{Status: &approved})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.requests.Approve(ctx, req.ID)
	_, limited := IsLimitReached(err)
	assert.True(t, limited)

	stored, err := env.store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, stored.Status)
	assert.Nil(t, stored.ApprovedAt)
	assert.Empty(t, env.reload(t, newcomer.ID).AffiliatedCompanies)
	got, err := env.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	approvedCount, err := env.requests.ApprovedCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, approvedCount)
}

func TestUpdateRequestCannotReopenApproval(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	member := env.member(t, "m@acme.io")
	item := env.item(t, owner, "Laptop", 3)
	req, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)
	_, err = env.requests.Approve(ctx, req.ID)
	require.NoError(t, err)

	for _, status := range []model.RequestStatus{model.RequestPending, model.RequestRejected} {
		status := status
		_, err = env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{Status: &status})
		assert.ErrorIs(t, err, ErrValidation, string(status))
	}

	res, err := env.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyApproved)
	got, err := env.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity, "one approval, one decrement")
}

func TestRequestCountsAndListing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acme := env.owner(t, "o@acme.io")
	other := env.owner(t, "o@other.io")
	member := env.member(t, "m@acme.io")
	acmeItem := env.item(t, acme, "Laptop", 5)
	otherItem := env.item(t, other, "Phone", 5)

	first, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: acmeItem.ID})
	require.NoError(t, err)
	_, err = env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: acmeItem.ID})
	require.NoError(t, err)
	_, err = env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: otherItem.ID})
	require.NoError(t, err)
	_, err = env.requests.Approve(ctx, first.ID)
	require.NoError(t, err)

	pending, err := env.requests.PendingCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
	approved, err := env.requests.ApprovedCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), approved)

	pending, err = env.requests.PendingCount(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	pending, err = env.requests.PendingCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	mine, err := env.requests.ListRequests(ctx, store.RequestFilter{EmployeeEmail: member.Email})
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	acmeOnly, err := env.requests.ListRequests(ctx, store.RequestFilter{CompanyID: acme.ID, Status: model.RequestApproved})
	require.NoError(t, err)
	require.Len(t, acmeOnly, 1)
	assert.Equal(t, first.ID, acmeOnly[0].ID)
}

func TestUpdateRequestValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	owner := env.owner(t, "o@acme.io")
	member := env.member(t, "m@acme.io")
	item := env.item(t, owner, "Laptop", 1)
	req, err := env.requests.CreateRequest(ctx, member.Email, RequestInput{ItemID: item.ID})
	require.NoError(t, err)

	_, err = env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	bogus := model.RequestStatus("lost")
	_, err = env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)

	returned := model.RequestReturned
	note := "back in stock"
	_, err = env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{Status: &returned})
	assert.ErrorIs(t, err, ErrValidation, "a pending request was never handed out")

	_, err = env.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	updated, err := env.requests.UpdateRequest(ctx, req.ID, model.RequestPatch{Status: &returned, Note: &note})
	require.NoError(t, err)
	assert.Equal(t, model.RequestReturned, updated.Status)
	assert.Equal(t, note, updated.Note)

	_, err = env.requests.UpdateRequest(ctx, "missing", model.RequestPatch{Note: &note})
	assert.ErrorIs(t, err, ErrNotFound)
}
