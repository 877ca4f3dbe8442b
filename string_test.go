package yarel

import "testing"

func TestStringMethods(t *testing.T) {
	cases := map[string]struct {
		source string
		want   string
	}{
		"Len":         {`print("héllo".len());`, "6"},
		"CountChars":  {`print("héllo".count_chars());`, "5"},
		"Find":        {`print("abcabc".find("bc", 2));`, "4"},
		"FindMissing": {`print("abc".find("zz", 0));`, "nil"},
		"Replace":     {`print("a-b-c".replace("-", "+"));`, "a+b+c"},
		"Split":       {`print("a,b,c".split(","));`, "[a, b, c]"},
		"StartsWith":  {`print("spam".starts_with("sp"));`, "true"},
		"EndsWith":    {`print("spam".ends_with("sp"));`, "false"},
		"AsNum":       {`print("2.5".as_num() * 2);`, "5"},
		"ToBytes":     {`print("AB".to_bytes());`, "[65, 66]"},
		"CodePoints":  {`print("Aé".to_code_points());`, "[65, 233]"},
		"FromUTF8":    {`print(String.from_utf8([104, 105]));`, "hi"},
		"FromPoints":  {`print(String.from_code_points([104, 233]));`, "hé"},
		"Ctor":        {`print(String(42) + "!");`, "42!"},
		"IndexChar":   {`print("héllo"[1]);`, "é"},
		"Slice":       {`print("hello"[Range(1, 4)]);`, "ell"},
		"NegIndex":    {`print("hello"[-1]);`, "o"},
		"IterJoin":    {`print("abc".map(|c| c + "-").collect());`, "[a-, b-, c-]"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			testRunOutput(t, c.source, c.want)
		})
	}
}

func TestStringErrors(t *testing.T) {
	cases := map[string]struct {
		source string
		kind   ErrorKind
	}{
		"FindEmpty":    {`"abc".find("", 0);`, ValueError},
		"ReplaceEmpty": {`"abc".replace("", "x");`, ValueError},
		"SplitEmpty":   {`"abc".split("");`, ValueError},
		"AsNumBad":     {`"not a number".as_num();`, ValueError},
		"BadIndex":     {`var c = "abc"[10];`, IndexError},
		"MidRune":      {`var c = "é"[1];`, IndexError},
		"BadUTF8":      {`String.from_utf8([255]);`, ValueError},
		"BadByte":      {`String.from_utf8([300]);`, ValueError},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			testExpectError(t, c.source, c.kind)
		})
	}
}

// TestStringCodecs exercises the Latin-1 and UTF-16 converters.
func TestStringCodecs(t *testing.T) {
	cases := map[string]struct {
		source string
		want   string
	}{
		"ToLatin1":      {`print("Aé".to_latin1());`, "[65, 233]"},
		"FromLatin1":    {`print(String.from_latin1([65, 233]));`, "Aé"},
		"Latin1Round":   {`print(String.from_latin1("café".to_latin1()));`, "café"},
		"ToUTF16":    {`print("A".to_utf16());`, "[0, 65]"},
		"FromUTF16":  {`print(String.from_utf16([0, 104, 0, 105]));`, "hi"},
		"UTF16Round": {`print(String.from_utf16("héllo".to_utf16()));`, "héllo"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			testRunOutput(t, c.source, c.want)
		})
	}
	t.Run("Latin1Reject", func(t *testing.T) {
		testExpectError(t, `"€".to_latin1();`, ValueError)
	})
}
