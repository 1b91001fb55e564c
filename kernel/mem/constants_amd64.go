//go:build amd64

package mem

const (
	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)).
	PointerShift = 3

	// PageShift is equal to log2(PageSize). Used to convert a physical or
	// virtual address to a page/frame number and vice-versa.
	PageShift = 12

	// PageSize is the system's page size in bytes.
	PageSize = Size(1 << PageShift)

	// HugePageShift is equal to log2(HugePageSize).
	HugePageShift = 21

	// HugePageSize is the size in bytes of a 2 MiB huge page.
	HugePageSize = Size(1 << HugePageShift)
)
