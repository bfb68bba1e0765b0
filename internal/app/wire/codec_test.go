package wire

import (
	"encoding/json"
	"errors"
	"testing"

	"roomchat/internal/pkg/errs"
)

func TestEncode_Register(t *testing.T) {
	out, err := Encode(Register{Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if result["messageType"] != "register" {
		t.Errorf("expected messageType %q, got %v", "register", result["messageType"])
	}
	if result["data"] != "alice" {
		t.Errorf("expected data %q, got %v", "alice", result["data"])
	}
	if v, ok := result["dataArray"]; !ok || v != nil {
		t.Errorf("expected dataArray to be present and null, got %v (present=%v)", v, ok)
	}
}

func TestEncode_SendMessageCarriesPlainBody(t *testing.T) {
	out, err := Encode(SendMessage{Body: `say "hi"`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"messageType":"message","dataArray":null,"data":"say \"hi\""}`
	if out != want {
		t.Errorf("expected %s, got %s", want, out)
	}
}

func TestDecode_Users(t *testing.T) {
	env, err := Decode(`{"messageType":"users","dataArray":["alice","bob"],"data":null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != TypeUsers {
		t.Fatalf("expected type %q, got %q", TypeUsers, env.Type)
	}
	if len(env.Names) != 2 || env.Names[0] != "alice" || env.Names[1] != "bob" {
		t.Errorf("unexpected roster: %v", env.Names)
	}
}

func TestDecode_UsersNullRosterIsEmpty(t *testing.T) {
	env, err := Decode(`{"messageType":"users","dataArray":null,"data":null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Names == nil || len(env.Names) != 0 {
		t.Errorf("expected an empty non-nil roster, got %#v", env.Names)
	}
}

func TestDecode_MessageTwoLayers(t *testing.T) {
	input := `{"messageType":"message","dataArray":null,"data":"{\"from\":\"alice\",\"message\":\"hi\",\"timestamp\":1700000000000}"}`

	env, err := Decode(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Message == nil {
		t.Fatal("expected a decoded message record")
	}
	if env.Message.From != "alice" || env.Message.Message != "hi" {
		t.Errorf("unexpected record: %+v", env.Message)
	}
	if env.Message.Timestamp == nil || *env.Message.Timestamp != 1700000000000 {
		t.Errorf("unexpected timestamp: %v", env.Message.Timestamp)
	}
}

func TestDecode_MessageWithoutTimestamp(t *testing.T) {
	env, err := Decode(`{"messageType":"message","data":"{\"from\":\"bob\",\"message\":\"yo\",\"timestamp\":null}"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Message.Timestamp != nil {
		t.Errorf("expected nil timestamp, got %v", *env.Message.Timestamp)
	}
}

func TestDecode_Typing(t *testing.T) {
	env, err := Decode(`{"messageType":"typing","data":"alice"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != TypeTyping || env.Name != "alice" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  *errs.CustomError
	}{
		{"not json", `hello there`, errs.MalformedEnvelope},
		{"json array", `["users"]`, errs.MalformedEnvelope},
		{"missing type", `{"data":"alice"}`, errs.MalformedEnvelope},
		{"unknown type", `{"messageType":"bogus"}`, errs.MalformedEnvelope},
		{"uppercase type", `{"messageType":"Users","dataArray":[]}`, errs.MalformedEnvelope},
		{"numeric type", `{"messageType":3}`, errs.MalformedEnvelope},
		{"message without data", `{"messageType":"message","data":null}`, errs.MalformedPayload},
		{"message inner not json", `{"messageType":"message","data":"hi"}`, errs.MalformedPayload},
		{"message inner missing from", `{"messageType":"message","data":"{\"message\":\"hi\"}"}`, errs.MalformedPayload},
		{"message inner bad timestamp", `{"messageType":"message","data":"{\"from\":\"a\",\"message\":\"b\",\"timestamp\":\"now\"}"}`, errs.MalformedPayload},
		{"message with array", `{"messageType":"message","dataArray":["a"],"data":"{}"}`, errs.MalformedPayload},
		{"typing without data", `{"messageType":"typing"}`, errs.MalformedPayload},
		{"typing numeric data", `{"messageType":"typing","data":7}`, errs.MalformedPayload},
		{"users with data", `{"messageType":"users","data":"alice"}`, errs.MalformedPayload},
		{"users with numbers", `{"messageType":"users","dataArray":[1,2]}`, errs.MalformedPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.input)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected error code %d, got %v", tc.want.Code, err)
			}
		})
	}
}

func TestServerFrames_DecodeBack(t *testing.T) {
	users, err := UsersFrame([]string{"alice", "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env, err := Decode(users); err != nil || len(env.Names) != 2 {
		t.Errorf("users frame did not decode: %+v, %v", env, err)
	}

	ts := int64(42)
	msg, err := MessageFrame(MessageData{From: "carol", Message: "hey", Timestamp: &ts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env, err := Decode(msg)
	if err != nil {
		t.Fatalf("message frame did not decode: %v", err)
	}
	if env.Message.From != "carol" || *env.Message.Timestamp != 42 {
		t.Errorf("unexpected record: %+v", env.Message)
	}

	typing, err := TypingFrame("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env, err := Decode(typing); err != nil || env.Name != "bob" {
		t.Errorf("typing frame did not decode: %+v, %v", env, err)
	}
}
