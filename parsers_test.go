package ftp

import "testing"

func TestUnixListParser(t *testing.T) {
	lines := []string{
		"total 8",
		"drwxr-xr-x   2 user group     4096 Jan 16 18:53 pub",
		"-rw-r--r--   1 user group     1234 Jan 16 18:53 readme.txt",
		"lrwxrwxrwx   1 user group        4 Jan 16 18:53 link -> target",
	}
	entries, err := unixListParser{}.Parse(lines)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Kind != EntryDir || entries[0].Name != "pub" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Kind != EntryFile || entries[1].Size != 1234 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if entries[2].Kind != EntryLink || entries[2].Name != "link" || entries[2].LinkTarget != "target" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
}

func TestUnixListParserRejectsForeignFormat(t *testing.T) {
	if _, err := (unixListParser{}).Parse([]string{"10-23-23  01:23PM  <DIR>  sub"}); err == nil {
		t.Errorf("expected rejection of DOS listing")
	}
}

func TestDOSListParser(t *testing.T) {
	lines := []string{
		"10-23-23  01:23PM       <DIR>          sub",
		"10-23-23  01:24PM                 1234 readme.txt",
	}
	entries, err := dosListParser{}.Parse(lines)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != EntryDir || entries[1].Size != 1234 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestEPLFListParser(t *testing.T) {
	lines := []string{"+i8388621.48594,m825718503,r,s280,\tfile.txt", "+/,\tsub"}
	entries, err := eplfListParser{}.Parse(lines)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Name != "file.txt" || entries[0].Size != 280 || !entries[0].HasModTime {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Kind != EntryDir || entries[1].Name != "sub" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestNetWareListParser(t *testing.T) {
	lines := []string{
		"d [R----F--] supervisor            512 Jan 16 18:53 login",
		"- [RWCEAFMS] supervisor           1234 Jan 16 18:53 readme.txt",
	}
	entries, err := netwareListParser{}.Parse(lines)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != EntryDir || entries[1].Size != 1234 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestParserRegistryCachesFirstSuccess(t *testing.T) {
	reg := newParserRegistry([]ListParser{dosListParser{}, unixListParser{}})

	dosLines := []string{"10-23-23  01:23PM                 100 a.txt"}
	if _, err := reg.parse(dosLines); err != nil {
		t.Fatalf("first parse: %v", err)
	}
	if reg.cached == nil {
		t.Fatalf("expected a cached parser after first success")
	}

	// A second, still-DOS-shaped listing should go straight through the
	// cached parser without re-probing.
	if _, err := reg.parse([]string{"10-23-23  01:24PM                 200 b.txt"}); err != nil {
		t.Fatalf("second parse: %v", err)
	}

	// Once cached, a listing the cached parser can't read fails outright
	// instead of falling through to try unixListParser.
	unixLines := []string{"-rw-r--r--   1 user group     1234 Jan 16 18:53 readme.txt"}
	if _, err := reg.parse(unixLines); err == nil {
		t.Errorf("expected cached DOS parser to reject a Unix listing, no re-probe")
	}
}
