package stages

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
	"github.com/KevinSGarrett/DebtCollect/pkg/apollo"
	apollomocks "github.com/KevinSGarrett/DebtCollect/pkg/apollo/mocks"
	"github.com/KevinSGarrett/DebtCollect/pkg/attom"
	attommocks "github.com/KevinSGarrett/DebtCollect/pkg/attom/mocks"
	"github.com/KevinSGarrett/DebtCollect/pkg/census"
	censusmocks "github.com/KevinSGarrett/DebtCollect/pkg/census/mocks"
	"github.com/KevinSGarrett/DebtCollect/pkg/courtlistener"
	clmocks "github.com/KevinSGarrett/DebtCollect/pkg/courtlistener/mocks"
	"github.com/KevinSGarrett/DebtCollect/pkg/google"
	googlemocks "github.com/KevinSGarrett/DebtCollect/pkg/google/mocks"
	"github.com/KevinSGarrett/DebtCollect/pkg/usps"
	uspsmocks "github.com/KevinSGarrett/DebtCollect/pkg/usps/mocks"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "stages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return Deps{Repo: store.NewRepo(st), Retry: resilience.FixedRetryConfig(1, time.Millisecond)}
}

func newDebtor(t *testing.T, deps Deps) *model.Debtor {
	t.Helper()
	d := &model.Debtor{
		FirstName: "Jane", LastName: "Smith",
		Address1: "500 Park Avenue", Address2: "Apt 4", City: "New York", State: "ny", Zip: "10022-1234",
		DebtOwed: 4200,
	}
	_, err := deps.Repo.CreateDebtor(context.Background(), d)
	require.NoError(t, err)
	return d
}

func TestUSPS_StandardizesAndDedupes(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)
	ctx := context.Background()

	c := uspsmocks.NewMockClient(t)
	c.On("Verify", mock.Anything, usps.Address{Line1: "500 PARK AVE", Line2: "APT 4", City: "NEW YORK", State: "NY", Zip5: "10022"}).
		Return(&usps.Result{Line1: "500 PARK AVE", Line2: "APT 4", City: "NEW YORK", State: "NY", Zip5: "10022", Zip4: "4201", DPVConfirmation: "Y"}, nil).Twice()

	stage := NewUSPS(deps, c)
	assert.Equal(t, NameUSPS, stage.Name())

	patch, err := stage.Run(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.True(t, *patch.UspsStandardized)
	id := *patch.StandardizedAddressID

	addr, err := deps.Repo.Address(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, 100, addr.Confidence)
	assert.Equal(t, "4201", addr.Zip4)
	assert.Equal(t, ProvenanceUSPS, addr.Provenance)

	patch, err = stage.Run(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, id, *patch.StandardizedAddressID)
}

func TestUSPS_NotDeliverable(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	c := uspsmocks.NewMockClient(t)
	c.On("Verify", mock.Anything, mock.Anything).Return(&usps.Result{Line1: "500 PARK AVE", Zip5: "10022", DPVConfirmation: "N"}, nil).Once()

	patch, err := NewUSPS(deps, c).Run(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, *patch.UspsStandardized)

	addr, err := deps.Repo.Address(context.Background(), *patch.StandardizedAddressID)
	require.NoError(t, err)
	assert.Equal(t, 70, addr.Confidence)
}

func TestUSPS_WithoutClientOrCredentials(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	patch, err := NewUSPS(deps, nil).Run(context.Background(), d)
	require.NoError(t, err)
	assert.Nil(t, patch)

	c := uspsmocks.NewMockClient(t)
	c.On("Verify", mock.Anything, mock.Anything).Return(nil, resilience.NewConfigurationError("usps", "usps.user_id")).Once()
	patch, err = NewUSPS(deps, c).Run(context.Background(), d)
	require.NoError(t, err)
	assert.Nil(t, patch)
}

func TestUSPS_ProviderFailureIsStageError(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	c := uspsmocks.NewMockClient(t)
	c.On("Verify", mock.Anything, mock.Anything).Return(nil, resilience.NewPermanentError(eris.New("usps: Address Not Found"), 0)).Once()

	_, err := NewUSPS(deps, c).Run(context.Background(), d)
	require.Error(t, err)
}

func TestUSPS_Simulate(t *testing.T) {
	deps := newDeps(t)
	deps.Simulate = true
	d := newDebtor(t, deps)

	patch, err := NewUSPS(deps, nil).Run(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, *patch.UspsStandardized)

	addr, err := deps.Repo.Address(context.Background(), *patch.StandardizedAddressID)
	require.NoError(t, err)
	assert.Equal(t, "1234", addr.Zip4)
	assert.Equal(t, ProvenanceSimulateUSPS, addr.Provenance)
	assert.Equal(t, "500 PARK AVE", addr.Line1)
}

func TestBankruptcy_StoresAndDedupesCases(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)
	ctx := context.Background()

	c := clmocks.NewMockClient(t)
	c.On("SearchByParty", mock.Anything, "Jane Smith").Return([]courtlistener.Docket{
		{ID: "11", CourtID: "nysb", DocketNumber: "1:19-bk-10001", Chapter: "7", DateFiled: "2019-02-01", DateTerminated: "2019-08-01", AbsoluteURL: "/docket/11/smith/"},
		{ID: "12", CourtID: "nysb", DateFiled: "2024-02-01"},
	}, nil).Twice()

	stage := NewBankruptcy(deps, c, PACER{})
	_, err := stage.Run(ctx, d)
	require.NoError(t, err)
	_, err = stage.Run(ctx, d)
	require.NoError(t, err)

	cases, err := deps.Repo.BankruptcyCases(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "1:19-bk-10001", cases[0].CaseNumber)
	assert.Equal(t, "terminated", cases[0].Status)
	assert.Equal(t, "2019-08-01", cases[0].DischargedDate)
	assert.Equal(t, "https://www.courtlistener.com/docket/11/smith/", cases[0].DocketURL)
	assert.Equal(t, SourceCourtListener, cases[0].Source)
	assert.Equal(t, "12", cases[1].CaseNumber)
	assert.Equal(t, "open", cases[1].Status)
}

func TestBankruptcy_CaseNameFallback(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	c := clmocks.NewMockClient(t)
	c.On("SearchByParty", mock.Anything, "Jane Smith").Return(nil, nil).Once()
	c.On("SearchByCaseName", mock.Anything, "Jane Smith").Return([]courtlistener.Docket{{ID: "7", DocketNumber: "2:20-bk-1"}}, nil).Once()

	_, err := NewBankruptcy(deps, c, PACER{}).Run(context.Background(), d)
	require.NoError(t, err)

	cases, err := deps.Repo.BankruptcyCases(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "2:20-bk-1", cases[0].CaseNumber)
}

func TestBankruptcy_FailureFallsBackToPACERStub(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	c := clmocks.NewMockClient(t)
	c.On("SearchByParty", mock.Anything, mock.Anything).Return(nil, resilience.NewTransientError(eris.New("courtlistener: 503"), 503)).Times(3)

	stage := NewBankruptcy(deps, c, PACER{Username: "u", Password: "p"})
	stage.partyRetry = resilience.LinearRetryConfig(3, time.Millisecond)

	patch, err := stage.Run(context.Background(), d)
	require.NoError(t, err)
	assert.Nil(t, patch)

	cases, err := deps.Repo.BankruptcyCases(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestPACER_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := PACER{}.Search(context.Background(), "Jane Smith")
	assert.True(t, resilience.IsConfiguration(err))

	cases, err := PACER{Username: "u", Password: "p"}.Search(context.Background(), "Jane Smith")
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestProperty_ATTOM(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)
	ctx := context.Background()

	a := attommocks.NewMockClient(t)
	a.On("PropertyDetail", mock.Anything, "500 PARK AVE, NEW YORK, NY 10022").Return(&attom.DetailResponse{
		Property: []attom.Property{{
			Summary:    attom.Summary{OwnOcc: "Y"},
			Assessment: attom.Assessment{Market: attom.Market{MktTtlValue: 812000}, Assessed: attom.Assessed{AssdTtlValue: 640000}},
		}},
	}, nil).Twice()
	cen := censusmocks.NewMockClient(t)

	stage := NewProperty(deps, a, cen)
	_, err := stage.Run(ctx, d)
	require.NoError(t, err)
	_, err = stage.Run(ctx, d)
	require.NoError(t, err)

	props, err := deps.Repo.Properties(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, ValueSourceATTOM, props[0].ValueSource)
	assert.True(t, props[0].OwnerOccupied)
	require.NotNil(t, props[0].MarketValue)
	assert.InDelta(t, 812000.0, *props[0].MarketValue, 0.01)
	assert.Nil(t, props[0].TaxAmount)
	cen.AssertNotCalled(t, "ZCTAMedianValue", mock.Anything, mock.Anything)
}

func TestProperty_UsesStandardizedAddress(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)
	ctx := context.Background()

	addr := &model.Address{DebtorID: d.ID, Line1: "500 PARK AVE", City: "NEW YORK", State: "NY", Zip5: "10022"}
	_, err := deps.Repo.CreateAddress(ctx, addr)
	require.NoError(t, err)
	d.StandardizedAddressID = addr.ID
	d.Address1 = "ignored"

	cen := censusmocks.NewMockClient(t)
	cen.On("ZCTAMedianValue", mock.Anything, "10022").Return(1250000.0, nil).Once()

	_, err = NewProperty(deps, nil, cen).Run(ctx, d)
	require.NoError(t, err)

	props, err := deps.Repo.Properties(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "500 PARK AVE", props[0].AddressLine1)
	assert.Equal(t, ValueSourceCensus, props[0].ValueSource)
	assert.InDelta(t, 1250000.0, *props[0].MarketValue, 0.01)
}

func TestProperty_CensusPlaceholder(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	a := attommocks.NewMockClient(t)
	a.On("PropertyDetail", mock.Anything, mock.Anything).Return(&attom.DetailResponse{}, nil).Once()
	cen := censusmocks.NewMockClient(t)
	cen.On("ZCTAMedianValue", mock.Anything, "10022").Return(0.0, census.ErrNoEstimate).Once()

	_, err := NewProperty(deps, a, cen).Run(context.Background(), d)
	require.NoError(t, err)

	props, err := deps.Repo.Properties(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.InDelta(t, PlaceholderMedian, *props[0].MarketValue, 0.01)
	assert.Equal(t, ValueSourceCensus, props[0].ValueSource)
}

func TestProperty_Simulate(t *testing.T) {
	deps := newDeps(t)
	deps.Simulate = true
	d := newDebtor(t, deps)

	_, err := NewProperty(deps, nil, nil).Run(context.Background(), d)
	require.NoError(t, err)

	props, err := deps.Repo.Properties(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, ValueSourceSimulateCensus, props[0].ValueSource)
	assert.True(t, props[0].OwnerOccupied)
}

func TestBusiness_PlacesLinksAndScores(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)
	ctx := context.Background()

	places := []google.Place{
		{DisplayName: google.DisplayName{Text: "Smith Roofing"}, WebsiteURI: "https://smithroofing.test", NationalPhoneNumber: "(212) 555-0100"},
		{DisplayName: google.DisplayName{Text: "Smith & Co"}},
		{DisplayName: google.DisplayName{Text: ""}},
	}
	for i := 0; i < 4; i++ {
		places = append(places, google.Place{DisplayName: google.DisplayName{Text: "Extra"}})
	}
	g := googlemocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, "Jane Smith").Return(&google.TextSearchResponse{Places: places}, nil).Twice()
	ap := apollomocks.NewMockClient(t)

	stage := NewBusiness(deps, g, ap)
	patch, err := stage.Run(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, 70, *patch.BusinessConfidence)

	_, err = stage.Run(ctx, d)
	require.NoError(t, err)

	biz, err := deps.Repo.FindBusinessByName(ctx, "Smith Roofing")
	require.NoError(t, err)
	require.NotNil(t, biz)
	link, err := deps.Repo.FindDebtorBusiness(ctx, d.ID, biz.ID)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, RoleOwner, link.Role)
	assert.Equal(t, 70, link.Confidence)

	extra, err := deps.Repo.FindBusinessByName(ctx, "Extra")
	require.NoError(t, err)
	require.NotNil(t, extra)

	raws, err := deps.Repo.Store().List(ctx, model.CollectionDebtorBusinesses, store.Filter{"debtor_id": d.ID}, 0)
	require.NoError(t, err)
	assert.Len(t, raws, 3)
	ap.AssertNotCalled(t, "PeopleMatch", mock.Anything, mock.Anything)
}

func TestBusiness_ApolloFallback(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	g := googlemocks.NewMockClient(t)
	g.On("TextSearch", mock.Anything, mock.Anything).Return(&google.TextSearchResponse{}, nil).Once()
	ap := apollomocks.NewMockClient(t)
	ap.On("PeopleMatch", mock.Anything, "Jane Smith").Return(&apollo.MatchResponse{Person: &apollo.Person{Name: "Jane Smith"}}, nil).Once()

	patch, err := NewBusiness(deps, g, ap).Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 40, *patch.BusinessConfidence)
}

func TestBusiness_NothingConfigured(t *testing.T) {
	deps := newDeps(t)
	d := newDebtor(t, deps)

	patch, err := NewBusiness(deps, nil, nil).Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 0, *patch.BusinessConfidence)
}

func TestBankruptcyAndBusiness_SimulateSkipsProviders(t *testing.T) {
	deps := newDeps(t)
	deps.Simulate = true
	d := newDebtor(t, deps)
	ctx := context.Background()

	// The mocks carry no expectations, so any call fails the test.
	patch, err := NewBankruptcy(deps, clmocks.NewMockClient(t), PACER{}).Run(ctx, d)
	require.NoError(t, err)
	assert.Nil(t, patch)

	patch, err = NewBusiness(deps, googlemocks.NewMockClient(t), apollomocks.NewMockClient(t)).Run(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.Equal(t, 0, *patch.BusinessConfidence)
}
