package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"

	"megan-waseller/internal/domain"
)

// fakeAPI records the requested parameter and answers with a canned output.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	gotIn  *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.gotIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func valueOutput(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: strPtr(v), Type: types.ParameterTypeSecureString}}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "/megan")
	require.ErrorContains(t, err, "must not be nil")

	_, err = New(&fakeAPI{}, " / ")
	require.ErrorContains(t, err, "prefix")
}

func TestClient_Path(t *testing.T) {
	c, err := New(&fakeAPI{}, "/megan/prod/")
	require.NoError(t, err)
	require.Equal(t, "/megan/prod/whatsapp-token", c.Path(SecretWhatsApp))
	require.Equal(t, "/other/absolute", c.Path("/other/absolute"))
}

func TestGetParameter_ResolvesUnderPrefixWithDecryption(t *testing.T) {
	api := &fakeAPI{getOut: valueOutput(`{"token":"EAAG"}`)}
	c, err := New(api, "/megan/prod")
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), SecretWhatsApp)
	require.NoError(t, err)
	require.Equal(t, `{"token":"EAAG"}`, v)
	require.Equal(t, "/megan/prod/whatsapp-token", *api.gotIn.Name)
	require.True(t, *api.gotIn.WithDecryption)
}

func TestGetParameter_Failures(t *testing.T) {
	cases := []struct {
		name    string
		api     *fakeAPI
		param   string
		wantErr string
	}{
		{name: "missing value", api: &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}}, param: "p", wantErr: "has no value"},
		{name: "nil output", api: &fakeAPI{}, param: "p", wantErr: "has no value"},
		{name: "api error", api: &fakeAPI{getErr: errors.New("boom")}, param: "p", wantErr: "boom"},
		{name: "empty name", api: &fakeAPI{}, param: "  ", wantErr: "required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.api, "/megan")
			require.NoError(t, err)
			_, err = c.GetParameter(context.Background(), tc.param)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestGetParameter_NotFoundIsNotConfigured(t *testing.T) {
	c, err := New(&fakeAPI{getErr: &types.ParameterNotFound{}}, "/megan")
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), SecretMercadoPago)
	require.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = NewSecret(c, SecretMercadoPago).Token(context.Background())
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")
}
