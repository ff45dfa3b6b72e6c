package index

// BucketSize is the number of slots a probe sequence may visit
const BucketSize = 32

// Hash folds key into a home slot in [0, capacity).
//
// The key is cut into 4-character chunks; each chunk contributes its
// character codes weighted 1, 256, 256^2, 256^3 to a running int64 sum.
// The sum is squared, shifted right by 8 and reduced modulo capacity.
// Overflow wraps, as int64 arithmetic does.
func Hash(key string, capacity int) int {
	runes := []rune(key)

	var sum int64
	for start := 0; start < len(runes); start += 4 {
		end := min(start+4, len(runes))
		mult := int64(1)
		for _, r := range runes[start:end] {
			sum += int64(r) * mult
			mult *= 256
		}
	}

	sum = (sum * sum) >> 8
	if sum < 0 {
		sum = -sum
	}

	// -MinInt64 is still negative
	slot := sum % int64(capacity)
	if slot < 0 {
		slot += int64(capacity)
	}
	return int(slot)
}

// Probe returns the i-th slot of the probe sequence starting at home. The
// sequence wraps within the bucket holding home and never leaves it. When
// capacity is not a multiple of BucketSize the last bucket is shorter.
func Probe(home, i, capacity int) int {
	lower := (home / BucketSize) * BucketSize
	width := bucketWidth(home, capacity)
	return lower + (home-lower+i)%width
}

// bucketWidth returns the number of slots in the bucket holding home
func bucketWidth(home, capacity int) int {
	lower := (home / BucketSize) * BucketSize
	return min(BucketSize, capacity-lower)
}
