package yarel

// coreSource is the prelude executed while constructing a VM. It defines
// the Iter combinator classes in Yarel itself; the runtime then copies
// Iter's method table onto the iterable built-in classes, which is the
// same treatment any derived user class receives.
const coreSource = `
#[constructor(new)]
class Iter {
    fn new(self, iterable) {
        self.iterable = iterable;
    }
    fn __iter__(self) {
        return self.iterable.__iter__();
    }
    fn map(self, func) {
        return MapIter.new(self.__iter__(), func);
    }
    fn filter(self, pred) {
        return FilterIter.new(self.__iter__(), pred);
    }
    fn take(self, count) {
        return TakeIter.new(self.__iter__(), count);
    }
    fn fold(self, initial, func) {
        var acc = initial;
        var iter = self.__iter__();
        var value = iter.__next__();
        while value != sentinel() {
            acc = func(acc, value);
            value = iter.__next__();
        }
        return acc;
    }
    fn collect(self) {
        var items = [];
        var iter = self.__iter__();
        var value = iter.__next__();
        while value != sentinel() {
            items.push(value);
            value = iter.__next__();
        }
        return items;
    }
}

#[constructor(new), derive(Iter)]
class MapIter {
    fn new(self, iter, func) {
        self.iter = iter;
        self.func = func;
    }
    fn __iter__(self) {
        return self;
    }
    fn __next__(self) {
        var value = self.iter.__next__();
        if value != sentinel() {
            return self.func(value);
        }
        return value;
    }
}

#[constructor(new), derive(Iter)]
class FilterIter {
    fn new(self, iter, pred) {
        self.iter = iter;
        self.pred = pred;
    }
    fn __iter__(self) {
        return self;
    }
    fn __next__(self) {
        var value = self.iter.__next__();
        while value != sentinel() {
            if self.pred(value) {
                return value;
            }
            value = self.iter.__next__();
        }
        return value;
    }
}

#[constructor(new), derive(Iter)]
class TakeIter {
    fn new(self, iter, count) {
        self.iter = iter;
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
        return self.iter.__next__();
    }
}
`
