package yarel

import "testing"

func TestForOverList(t *testing.T) {
	testRunOutput(t, `
for x in [1, 2, 3] {
    print(x);
}
`, "1", "2", "3")
}

// TestForOverEmpty tests iteration over a zero-element iterator.
func TestForOverEmpty(t *testing.T) {
	testRunOutput(t, `
for x in [] {
    print(x);
}
print("done");
`, "done")
}

func TestForOverRange(t *testing.T) {
	testRunOutput(t, `
var total = 0;
for i in Range(0, 5) {
    total += i;
}
print(total);
for i in Range(3, 0) {
    print(i);
}
`, "10", "3", "2", "1")
}

func TestForOverString(t *testing.T) {
	testRunOutput(t, `
for c in "héllo"[Range(0, 3)] {
    print(c);
}
`, "h", "é")
}

// TestMapInsertionOrder tests that map iteration observes insertion order.
func TestMapInsertionOrder(t *testing.T) {
	testRunOutput(t, `
var m = Map();
m["b"] = 1;
m["a"] = 2;
m["c"] = 3;
m["a"] = 4;
for k in m {
    print("${k}=${m[k]}");
}
`, "b=1", "a=4", "c=3")
}

func TestForBreakContinue(t *testing.T) {
	testRunOutput(t, `
for x in [1, 2, 3, 4, 5] {
    if x == 2 {
        continue;
    }
    if x == 4 {
        break;
    }
    print(x);
}
`, "1", "3")
}

func TestNestedFor(t *testing.T) {
	testRunOutput(t, `
for a in [1, 2] {
    for b in [10, 20] {
        print(a * b);
    }
}
`, "10", "20", "20", "40")
}

// TestCustomIterator runs the Fibonacci scenario: a user iterator class
// derived from Iter, mapped through square and collected.
func TestCustomIterator(t *testing.T) {
	testRunOutput(t, `
#[constructor(new), derive(Iter)]
class Fib {
    fn new(self, count) {
        self.a = 0;
        self.b = 1;
        self.count = count;
    }
    fn __iter__(self) {
        return self;
    }
    fn __next__(self) {
        if self.count <= 0 {
            return sentinel();
        }
        self.count = self.count - 1;
        var value = self.a;
        self.a = self.b;
        self.b = value + self.b;
        return value;
    }
}
fn square(x) {
    return x * x;
}
print(Fib.new(10).map(square).collect());
`, "[0, 1, 1, 4, 9, 25, 64, 169, 441, 1156]")
}

// TestIterCollectRoundTrip tests that wrapping a list in Iter and
// collecting reproduces the elements.
func TestIterCollectRoundTrip(t *testing.T) {
	testRunOutput(t, `
var xs = [1, "two", nil, true];
print(Iter(xs).collect());
print(Iter([]).collect());
`, "[1, two, nil, true]", "[]")
}

func TestIterCombinators(t *testing.T) {
	testRunOutput(t, `
var xs = [1, 2, 3, 4, 5, 6];
print(xs.filter(|x| x > 3).collect());
print(xs.map(|x| x * 10).take(2).collect());
print(xs.fold(0, |acc, x| acc + x));
print(Range(0, 100).take(3).collect());
`, "[4, 5, 6]", "[10, 20]", "21", "[0, 1, 2]")
}

// TestLazyCombinators tests that map is lazy: the function runs only for
// consumed elements.
func TestLazyCombinators(t *testing.T) {
	testRunOutput(t, `
var seen = [];
var mapped = [1, 2, 3].map(|x| {
    seen.push(x);
    return x;
});
print(seen);
mapped.take(2).collect();
print(seen);
`, "[]", "[1, 2]")
}

// TestForOverCustomIterable tests the for loop against the iterator
// protocol on a user class.
func TestForOverCustomIterable(t *testing.T) {
	testRunOutput(t, `
#[constructor(new), derive(Iter)]
class Repeat {
    fn new(self, value, count) {
        self.value = value;
        self.count = count;
    }
    fn __iter__(self) {
        return self;
    }
    fn __next__(self) {
        if self.count <= 0 {
            return sentinel();
        }
        self.count = self.count - 1;
        return self.value;
    }
}
for x in Repeat.new("hi", 2) {
    print(x);
}
`, "hi", "hi")
}

// TestSentinelIdentity tests that the sentinel compares equal only to
// itself.
func TestSentinelIdentity(t *testing.T) {
	testRunOutput(t, `
print(sentinel() == sentinel());
print(sentinel() == nil);
print(sentinel() == false);
`, "true", "false", "false")
}

func TestChainedCombinators(t *testing.T) {
	testRunOutput(t, `
var result = Range(0, 10)
    .map(|x| x * x)
    .filter(|x| x > 5)
    .take(3)
    .collect();
print(result);
`, "[9, 16, 25]")
}
