package fuzztests

import "testing"

const maxFuzzInput = 1 << 16 // 64 KiB

var languageSeeds = []string{
	"",
	"fn main() -> () {}\n",
	"import greet::greet;\nfn main() -> () { print(greet(\"knox\")); }\n",
	"import shapes::{Point, origin as o};\nimport std;\n",
	"pub struct Point {\n    x: int @pub(get, set),\n    y: int @pub(get),\n}\n",
	"fn half(n: int) -> Result[int, string] {\n    if n % 2 == 0 { Ok(n / 2) } else { Err(\"odd\") }\n}\n",
	"fn f(d: dynamic) -> () {\n    match d { { x: int } => print(\"x\"), s: string => print(s), _ => () }\n}\n",
	"fn bump(r: &mut int) -> () { *r = *r + 1; }\n",
	"fn g(s: string) -> Result[int, string] { let v = parse(s)?; Ok(v) }\n",
	"fn n() -> int { -2147483648 }\n",
	"/* block */ // line\nfn main() -> () { let x: Option[u64] = Some(7); }\n",
	"fn main() -> () { let é = \"\\u{1F600}\\n\"; }\n",
}

var recoverySeeds = []string{
	"fn test() { let x: int = 1\nlet y: int = 2; }",
	"fn f() -> () { { { { } } } }",
	"pub pub fn",
	"struct { x: }",
	"fn main() -> () { match x { }",
	"import ::;",
	"\"unterminated",
	"/* never closed",
	"fn f(a: int,, b) -> {",
	"let x = 1;",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	for _, s := range recoverySeeds {
		f.Add([]byte(s))
	}
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
