package jsonx

import (
	"errors"
	"testing"
)

func TestExtractFencedJSON(t *testing.T) {
	text := "Sure, here you go:\n```json\n{\"intent\": \"email_send\", \"confidence\": 0.9}\n```\nAnything else?"
	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject error: %v", err)
	}
	if obj["intent"] != "email_send" {
		t.Fatalf("intent = %v", obj["intent"])
	}
}

func TestExtractGenericFence(t *testing.T) {
	text := "```\n{\"a\": 1}\n```"
	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject error: %v", err)
	}
	if obj["a"] != float64(1) {
		t.Fatalf("a = %v", obj["a"])
	}
}

func TestExtractBalancedObject(t *testing.T) {
	text := `The result is {"name": "closing brace } in string", "n": 2} and that's it.`
	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject error: %v", err)
	}
	if obj["name"] != "closing brace } in string" {
		t.Fatalf("name = %v", obj["name"])
	}
}

func TestExtractEscapedQuotes(t *testing.T) {
	text := `{"text": "she said \"hi\" {", "ok": true}`
	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject error: %v", err)
	}
	if obj["ok"] != true {
		t.Fatalf("ok = %v", obj["ok"])
	}
}

func TestExtractPrefersFencedBlock(t *testing.T) {
	text := "{\"wrong\": true} but actually:\n```json\n{\"right\": true}\n```"
	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject error: %v", err)
	}
	if obj["right"] != true {
		t.Fatalf("expected fenced object, got %v", obj)
	}
}

func TestExtractNoJSON(t *testing.T) {
	if _, err := ExtractObject("nothing to see here"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("err = %v, want ErrNoJSON", err)
	}
	if _, err := ExtractObject("{broken"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("err = %v, want ErrNoJSON", err)
	}
}

func TestExtractArray(t *testing.T) {
	var nums []int
	if err := Extract("```json\n[1, 2, 3]\n```", &nums); err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(nums) != 3 || nums[2] != 3 {
		t.Fatalf("nums = %v", nums)
	}
}
