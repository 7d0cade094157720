package line

import "testing"

func TestParsePostback(t *testing.T) {
	cmd, err := ParsePostback("action=job&step=select_shift&job_id=JOB001&shift=%E6%97%A9%E7%8F%AD+08%3A00-12%3A00")
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	if cmd.Action != "job" || cmd.Step != "select_shift" || cmd.JobID != "JOB001" {
		t.Errorf("cmd = %+v", cmd)
	}
	if cmd.Shift != "早班 08:00-12:00" {
		t.Errorf("Shift = %q, percent decoding failed", cmd.Shift)
	}
}

func TestParsePostback_MissingKeysAreEmpty(t *testing.T) {
	cmd, err := ParsePostback("action=register")
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	if cmd.Action != "register" {
		t.Errorf("Action = %q", cmd.Action)
	}
	if cmd.Step != "" || cmd.JobID != "" || cmd.Shift != "" || cmd.Field != "" {
		t.Errorf("missing keys should decode empty, got %+v", cmd)
	}
}

func TestParsePostback_Malformed(t *testing.T) {
	if _, err := ParsePostback("a=%zz"); err == nil {
		t.Error("malformed percent-encoding should fail")
	}
}

func TestCommandRoundTrip(t *testing.T) {
	in := Command{Action: "job", Step: "select_shift", JobID: "JOB001", Shift: "早班 08:00-12:00"}
	out, err := ParsePostback(in.Encode())
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestEncode_OmitsEmptyKeys(t *testing.T) {
	data := Command{Action: "register"}.Encode()
	if data != "action=register" {
		t.Errorf("Encode = %q, want action=register", data)
	}
}
