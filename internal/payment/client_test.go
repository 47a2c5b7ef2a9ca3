package payment

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/eventhub/internal/conf"
	"github.com/campusworks/eventhub/internal/errors"
)

func testClient() *Client {
	return NewClient(&conf.PaymentSettings{
		GatewayURL: "https://gateway.test",
		APIKey:     "sk_test_123",
		Timeout:    5 * time.Second,
	})
}

func TestChargeSuccess(t *testing.T) {
	client := testClient()
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://gateway.test/v1/charges",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer sk_test_123", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"id":     "ch_987",
				"status": "succeeded",
			})
		})

	result, err := client.Charge(context.Background(), &ChargeRequest{
		AmountCents: 2500,
		Currency:    "EUR",
		Reference:   "pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ch_987", result.GatewayRef)
	assert.True(t, result.Succeeded())
}

func TestChargeDeclined(t *testing.T) {
	client := testClient()
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://gateway.test/v1/charges",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"id":      "ch_988",
			"status":  "failed",
			"message": "insufficient funds",
		}))

	result, err := client.Charge(context.Background(), &ChargeRequest{AmountCents: 100, Currency: "EUR"})
	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Equal(t, "insufficient funds", result.Message)
}

func TestChargeGatewayError(t *testing.T) {
	client := testClient()
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://gateway.test/v1/charges",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream unavailable"))

	_, err := client.Charge(context.Background(), &ChargeRequest{AmountCents: 100, Currency: "EUR"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryPayment))
	assert.Contains(t, err.Error(), "502")
}

func TestChargeNetworkFailure(t *testing.T) {
	client := testClient()
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://gateway.test/v1/charges",
		httpmock.NewErrorResponder(errors.NewStd("connection reset")))

	_, err := client.Charge(context.Background(), &ChargeRequest{AmountCents: 100, Currency: "EUR"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryHTTP))
}

func TestChargeUnconfiguredGateway(t *testing.T) {
	client := NewClient(&conf.PaymentSettings{})

	_, err := client.Charge(context.Background(), &ChargeRequest{AmountCents: 100, Currency: "EUR"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfiguration))
}

func TestRefund(t *testing.T) {
	client := testClient()
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://gateway.test/v1/refunds",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"id":     "re_1",
			"status": "succeeded",
		}))

	result, err := client.Refund(context.Background(), "ch_987")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
}
