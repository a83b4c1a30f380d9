package mongodb

import (
	"context"
	"testing"

	"franchise-catalog/internal/shared/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type catalogFixture struct {
	franchiseCol *fakeCollection
	branchCol    *fakeCollection
	productCol   *fakeCollection
	facade       *CatalogFacade
}

func testLogger(t *testing.T) logger.Logger {
	return logger.NewZapLoggerFrom(zaptest.NewLogger(t))
}

// newCatalogFixture wires the facade over fake collections carrying the production unique indexes
func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	fx := &catalogFixture{
		franchiseCol: newFakeCollection("franchises"),
		branchCol:    newFakeCollection("branches"),
		productCol:   newFakeCollection("products"),
	}
	log := testLogger(t)
	require.NoError(t, EnsureIndexes(context.Background(), fx.franchiseCol, fx.branchCol, fx.productCol, log))
	fx.facade = NewCatalogFacadeFromCollections(fx.franchiseCol, fx.branchCol, fx.productCol, DefaultCollectionNames(), log)
	return fx
}

func (fx *catalogFixture) franchise(t *testing.T, name string) string {
	t.Helper()
	f, err := fx.facade.CreateFranchise(context.Background(), name)
	require.NoError(t, err)
	return f.ID
}

func (fx *catalogFixture) branch(t *testing.T, franchiseID, name string) string {
	t.Helper()
	b, err := fx.facade.AddBranch(context.Background(), franchiseID, name)
	require.NoError(t, err)
	return b.ID
}

func (fx *catalogFixture) product(t *testing.T, franchiseID, branchID, name string, stock int) string {
	t.Helper()
	p, err := fx.facade.AddProduct(context.Background(), franchiseID, branchID, name, stock)
	require.NoError(t, err)
	return p.ID
}
