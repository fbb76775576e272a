package validate_test

import (
	"testing"

	"github.com/ardanlabs/pownode/foundation/validate"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type newTx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    int64  `json:"amount"`
}

func Test_Check(t *testing.T) {
	t.Log("Given the need to validate request models.")
	{
		if err := validate.Check(newTx{Sender: "a", Recipient: "b"}); err != nil {
			t.Fatalf("\t%s\tShould accept a complete model: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a complete model.", success)

		err := validate.Check(newTx{Sender: "a"})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould get field errors: %v", failed, err)
		}
		t.Logf("\t%s\tShould get field errors.", success)

		fields := validate.GetFieldErrors(err).Fields()
		if len(fields) != 1 {
			t.Fatalf("\t%s\tShould get one field error, got %v.", failed, fields)
		}

		msg, exists := fields["recipient"]
		if !exists {
			t.Fatalf("\t%s\tShould name the field by its json tag, got %v.", failed, fields)
		}
		t.Logf("\t%s\tShould name the field by its json tag.", success)

		if msg != "recipient is a required field" {
			t.Fatalf("\t%s\tShould get an english message, got %q.", failed, msg)
		}
		t.Logf("\t%s\tShould get an english message.", success)
	}
}
