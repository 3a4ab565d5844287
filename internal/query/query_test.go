package query

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		data string
		want Query
	}{
		{"new", Query{Category: CategoryNewTicket}},
		{"sp*my_o_t", Query{Category: CategorySupport, Command: CmdMyOpenTickets}},
		{"sp*my_o_t*t1", Query{Category: CategorySupport, Command: CmdMyOpenTickets, Args: []string{"t1"}}},
		{"adm*t_cls*t1*True", Query{Category: CategoryAdmin, Command: CmdTicketClose, Args: []string{"t1", "True"}}},
		{"c*l_c_h*ru", Query{Category: CategoryCommands, Command: CmdLangCode, Args: []string{"ru"}}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.data)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.data, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.data, got, tt.want)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, data := range []string{"new", "sp*my_o_t", "adm*t_sel*t1", "adm*t_cls*t1*False"} {
		q, err := Parse(data)
		if err != nil {
			t.Fatal(err)
		}
		if got := q.Encode(); got != data {
			t.Errorf("round trip %q -> %q", data, got)
		}
	}
}

func TestBuild(t *testing.T) {
	if got := Build(CategoryAdmin, CmdTicketSelect, "t9"); got != "adm*t_sel*t9" {
		t.Errorf("Build = %q", got)
	}
	if got := Build(CategoryConversation, CmdNewCalc); got != "ch*gltfd" {
		t.Errorf("Build = %q", got)
	}
}

func TestArgOutOfRange(t *testing.T) {
	q, _ := Parse("sp*my_o_t")
	if q.Arg(0) != "" || q.Arg(-1) != "" {
		t.Error("missing args should be empty")
	}
}
