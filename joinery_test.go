package joinery_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimaridata/joinery"
	"github.com/chimaridata/joinery/internal/testutil"
)

// The standard scenario: four users, six orders. Orders reference user
// ids 1,2,3,4,5,1, so user 1 is a repeat buyer and order 105 belongs to
// an unknown user.
func joinFixture() (*joinery.Dataset, map[string]*joinery.Dataset) {
	users := testutil.UsersDataset("ds-users")
	orders := testutil.OrdersDataset("ds-orders", testutil.WithRowCount(6))
	return users, map[string]*joinery.Dataset{"ds-orders": orders}
}

func mergeConfig(joinType joinery.JoinType) *joinery.JoinConfig {
	return &joinery.JoinConfig{
		JoinWith: []string{"ds-orders"},
		JoinType: joinType,
		JoinKeys: map[string]string{
			"ds-users":  "id",
			"ds-orders": "user_id",
		},
		MergeStrategy: joinery.StrategyMerge,
	}
}

func TestJoinLeft(t *testing.T) {
	users, targets := joinFixture()

	result := joinery.Join(mergeConfig(joinery.LeftJoin), users, targets)
	ds := testutil.RequireSuccess(t, result)

	// One row per user-order match, duplicated for the repeat buyer.
	assert.Equal(t, 5, result.RecordCount)
	testutil.AssertFieldOrder(t, ds,
		"id", "name", "department", "signed_up",
		"orders_order_id", "orders_amount", "orders_status")
	assert.Equal(t, ds.Schema.Names(), result.JoinedFields)

	// The join key column comes through once, under the base name.
	_, present := ds.Rows[0]["orders_user_id"]
	assert.False(t, present)
	_, present = ds.Rows[0]["user_id"]
	assert.False(t, present)

	// Alice (id 1) fans out over orders 101 and 106.
	assert.True(t, ds.Rows[0].Get("name").Equal(joinery.Text("Alice")))
	assert.True(t, ds.Rows[0].Get("orders_order_id").Equal(joinery.Number(101)))
	assert.True(t, ds.Rows[1].Get("name").Equal(joinery.Text("Alice")))
	assert.True(t, ds.Rows[1].Get("orders_order_id").Equal(joinery.Number(106)))

	assert.True(t, strings.HasPrefix(ds.Name, "users_joined_"))
	assert.NotEmpty(t, ds.ID)

	require.NotNil(t, ds.Provenance)
	assert.Equal(t, joinery.StrategyMerge, ds.Provenance.MergeStrategy)
	assert.Equal(t, joinery.LeftJoin, ds.Provenance.JoinType)
	assert.Equal(t, map[string]string{"ds-users": "id", "ds-orders": "user_id"}, ds.Provenance.JoinKeys)
	require.Len(t, ds.Provenance.Sources, 2)
	assert.Equal(t, joinery.SourceRef{ID: "ds-users", Name: "users", RecordCount: 4}, ds.Provenance.Sources[0])
	assert.Equal(t, joinery.SourceRef{ID: "ds-orders", Name: "orders", RecordCount: 6}, ds.Provenance.Sources[1])
	assert.False(t, ds.Provenance.CreatedAt.IsZero())
}

func TestJoinInner(t *testing.T) {
	users, targets := joinFixture()

	result := joinery.Join(mergeConfig(joinery.InnerJoin), users, targets)
	ds := testutil.RequireSuccess(t, result)

	// Order 105 has no matching user and drops out.
	assert.Equal(t, 5, result.RecordCount)
	for _, row := range ds.Rows {
		assert.False(t, row.Get("orders_order_id").IsNull())
		assert.False(t, row.Get("name").IsNull())
	}
}

func TestJoinRight(t *testing.T) {
	users, targets := joinFixture()

	result := joinery.Join(mergeConfig(joinery.RightJoin), users, targets)
	ds := testutil.RequireSuccess(t, result)

	// All six orders survive; the orphan gains null user fields with
	// its key value preserved under the base key column.
	assert.Equal(t, 6, result.RecordCount)
	orphan := ds.Rows[5]
	assert.True(t, orphan.Get("id").Equal(joinery.Number(5)))
	assert.True(t, orphan.Get("name").IsNull())
	assert.True(t, orphan.Get("orders_order_id").Equal(joinery.Number(105)))
}

func TestJoinFullOuter(t *testing.T) {
	users, targets := joinFixture()

	result := joinery.Join(mergeConfig(joinery.FullOuterJoin), users, targets)
	ds := testutil.RequireSuccess(t, result)

	// Every user has an order, so outer adds only the orphan order.
	assert.Equal(t, 6, result.RecordCount)
	assert.True(t, ds.Rows[5].Get("orders_order_id").Equal(joinery.Number(105)))
}

func TestConcat(t *testing.T) {
	base := testutil.UsersDataset("ds-a")
	extra := testutil.UsersDataset("ds-b", testutil.WithRowCount(2))

	cfg := &joinery.JoinConfig{
		JoinWith:      []string{"ds-b"},
		MergeStrategy: joinery.StrategyConcat,
	}
	result := joinery.Join(cfg, base, map[string]*joinery.Dataset{"ds-b": extra})
	ds := testutil.RequireSuccess(t, result)

	// Rows stack without deduplication; identical schemas merge into
	// the same four fields.
	assert.Equal(t, 6, result.RecordCount)
	testutil.AssertFieldOrder(t, ds, "id", "name", "department", "signed_up")

	assert.True(t, ds.Rows[0].Get("id").Equal(joinery.Number(1)))
	assert.True(t, ds.Rows[4].Get("id").Equal(joinery.Number(1)))

	require.NotNil(t, ds.Provenance)
	assert.Equal(t, joinery.StrategyConcat, ds.Provenance.MergeStrategy)
	assert.Nil(t, ds.Provenance.JoinKeys)
}

func TestValidate(t *testing.T) {
	users, targets := joinFixture()

	require.NoError(t, joinery.Validate(mergeConfig(joinery.LeftJoin), users, targets))

	// Unknown target id.
	cfg := mergeConfig(joinery.LeftJoin)
	cfg.JoinWith = []string{"ds-missing"}
	err := joinery.Validate(cfg, users, targets)
	require.Error(t, err)

	var jerr *joinery.JoinError
	require.True(t, errors.As(err, &jerr))
	assert.Equal(t, joinery.CodeDatasetNotFound, jerr.Code)
	assert.Equal(t, "Dataset 'ds-missing' could not be found", jerr.Message)
}

func TestJoinFailsAtomically(t *testing.T) {
	users := testutil.UsersDataset("ds-users", testutil.WithRowCount(0))
	orders := testutil.OrdersDataset("ds-orders")

	result := joinery.Join(mergeConfig(joinery.LeftJoin), users,
		map[string]*joinery.Dataset{"ds-orders": orders})

	jerr := testutil.RequireFailure(t, result, joinery.CodeEmptyBaseDataset)
	assert.Equal(t, "Base dataset 'users' has no data to join", jerr.Message)
	assert.Empty(t, result.JoinedFields)
}

func TestJoinInputsUnchanged(t *testing.T) {
	users, targets := joinFixture()
	userRows := users.RecordCount
	orderFields := targets["ds-orders"].Schema.Names()

	result := joinery.Join(mergeConfig(joinery.FullOuterJoin), users, targets)
	testutil.RequireSuccess(t, result)

	assert.Equal(t, userRows, users.RecordCount)
	assert.Len(t, users.Rows, 4)
	assert.Equal(t, orderFields, targets["ds-orders"].Schema.Names())
	assert.Nil(t, users.Provenance)
}

func TestParseHelpers(t *testing.T) {
	jt, err := joinery.ParseJoinType("left")
	require.NoError(t, err)
	assert.Equal(t, joinery.LeftJoin, jt)

	ms, err := joinery.ParseMergeStrategy("concat")
	require.NoError(t, err)
	assert.Equal(t, joinery.StrategyConcat, ms)

	ft, err := joinery.ParseFieldType("boolean")
	require.NoError(t, err)
	assert.Equal(t, joinery.TypeBool, ft)

	_, err = joinery.ParseJoinType("sideways")
	assert.Error(t, err)
}

func TestConfigPassthrough(t *testing.T) {
	saved := joinery.GetGlobalConfig()
	defer joinery.SetGlobalConfig(saved)

	cfg := joinery.DefaultConfig()
	cfg.CollisionPolicy = "error"
	joinery.SetGlobalConfig(cfg)

	assert.Equal(t, "error", joinery.GetGlobalConfig().CollisionPolicy)
}
