package gateway

import "testing"

func TestCanonicalWebhookPayloadIsOrderIndependent(t *testing.T) {
	a := []byte(`{"event":"transaction.updated","timestamp":1700000000,"data":{"transaction":{"status":"APPROVED","id":"wtx_1","amount_in_cents":50000}},"signature":{"checksum":"x"}}`)
	b := []byte(`{"signature":{"checksum":"y"},"data":{"transaction":{"amount_in_cents":50000,"id":"wtx_1","status":"APPROVED"}},"timestamp":1700000000,"event":"transaction.updated"}`)

	ca, err := CanonicalWebhookPayload(a)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := CanonicalWebhookPayload(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ca) != string(cb) {
		t.Fatalf("canonical forms differ:\n%s\n%s", ca, cb)
	}
	want := `{"data":{"transaction":{"amount_in_cents":50000,"id":"wtx_1","status":"APPROVED"}},"event":"transaction.updated","timestamp":1700000000}`
	if string(ca) != want {
		t.Fatalf("got %s", ca)
	}
}

func TestCanonicalWebhookPayloadRejectsGarbage(t *testing.T) {
	if _, err := CanonicalWebhookPayload([]byte(`not json`)); err == nil {
		t.Fatal("expected error")
	}
	if _, err := CanonicalWebhookPayload([]byte(`null`)); err == nil {
		t.Fatal("expected error for null body")
	}
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"a":1}`)
	sum := Sign("secret", payload)
	if !Verify("secret", payload, sum) {
		t.Fatal("valid checksum rejected")
	}
	if Verify("other", payload, sum) {
		t.Fatal("checksum accepted with wrong secret")
	}
	if Verify("secret", payload, "zz-not-hex") {
		t.Fatal("non-hex checksum accepted")
	}
}

func TestNewTransactionRequestVariants(t *testing.T) {
	direct := NewTransactionRequest(RequestInput{AmountInCents: 1000, PaymentMethodToken: "tok_1"})
	if direct.Flow != FlowDirect || direct.PaymentMethod.Token != "tok_1" || direct.PaymentMethod.Installments != 1 {
		t.Fatalf("direct request: %+v", direct)
	}
	intent := NewTransactionRequest(RequestInput{AmountInCents: 1000})
	if intent.Flow != FlowIntent || intent.PaymentMethod.Token != "" || intent.PaymentMethod.Type != PaymentMethodCard {
		t.Fatalf("intent request: %+v", intent)
	}
	if intent.CustomerData != nil {
		t.Fatal("customer data should be omitted when empty")
	}
}

func TestKindForStatus(t *testing.T) {
	cases := map[int]ErrorKind{401: KindAuth, 403: KindForbidden, 404: KindNotFound, 422: KindValidation, 500: KindUnavailable, 503: KindUnavailable, 400: KindUnknown}
	for status, want := range cases {
		if got := KindForStatus(status); got != want {
			t.Errorf("KindForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}
