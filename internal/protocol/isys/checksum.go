package isys

// Checksum 计算FCS：对 buf[start..end]（两端均含）逐字节累加，
// byte溢出自动丢弃高位。调用方保证 start <= end < len(buf)，
// 各调用点的边界都由固定帧布局给出。
func Checksum(buf []byte, start, end int) byte {
	var sum byte
	for i := start; i <= end; i++ {
		sum += buf[i]
	}
	return sum
}
