package diskimage

// KnownHashes maps SHA-1 hex digests of well-known boot/RWTS and zero
// sectors to a human-readable label. It is used only for display — never
// for identification or parsing decisions.
var KnownHashes = map[string]string{
	"b376885ac8452b6cbf9ced81b1080bfd570d9b91": "Zero sector",
	"90e6b1a0689974743cb92ca0b833ff1e683f4a73": "Boot1 (DOS 3.3 August 1980)",
	"7ab36247fdf62e87f98d2964dd74d6572d17fff0": "Boot1 (DOS 3.3 January 1983)",
	"16e4c17a85eb321bae784ab716975ddeef6da2c6": "Boot1 (DOS 3.3 System Master)",
	"822c7450afa01f46bbc828d4d46e01bc08d73198": "Boot1 (ProntoDOS (1982))",
	"30da15678e0d70e20ecf86bcb2de3fd3874dbd0d": "Boot1 (ProntoDOS (March 1983))",
	"93d81a812d824d58dedec8f7787e9cfcc7a2d3b3": "Boot1 (Apple Pascal, Fortran)",
	"adeb3be5c3d9487a76f1917d1c28104a1a6fc72f": "Boot1 (Faster DOS 3.3?)",
	"4f4aff4e1eb8d806164544b64dc967abd76128a4": "Boot1 (ProDOS?)",
}
