package cert

// rootModulusRetail is the hard-coded 512-byte (RSA-4096) root public key
// modulus that signs the "CA00000001" (retail) root certificate, exponent
// 0x00010001.
// rootModulusDevelopment is the same for "CA00000002" (development). Its
// source literal carries a leading zero byte; that doesn't change the
// integer value big.Int.SetBytes derives from it.
var (
	rootModulusRetail = [512]byte{
		0xf8, 0x24, 0x6c, 0x58, 0xba, 0xe7, 0x50, 0x03, 0x01, 0xfb, 0xb7, 0xc2, 0xeb, 0xe0, 0x01, 0x05,
		0x71, 0xda, 0x92, 0x23, 0x78, 0xf0, 0x51, 0x4e, 0xc0, 0x03, 0x1d, 0xd0, 0xd2, 0x1e, 0xd3, 0xd0,
		0x7e, 0xfc, 0x85, 0x20, 0x69, 0xb5, 0xde, 0x9b, 0xb9, 0x51, 0xa8, 0xbc, 0x90, 0xa2, 0x44, 0x92,
		0x6d, 0x37, 0x92, 0x95, 0xae, 0x94, 0x36, 0xaa, 0xa6, 0xa3, 0x02, 0x51, 0x0c, 0x7b, 0x1d, 0xed,
		0xd5, 0xfb, 0x20, 0x86, 0x9d, 0x7f, 0x30, 0x16, 0xf6, 0xbe, 0x65, 0xd3, 0x83, 0xa1, 0x6d, 0xb3,
		0x32, 0x1b, 0x95, 0x35, 0x18, 0x90, 0xb1, 0x70, 0x02, 0x93, 0x7e, 0xe1, 0x93, 0xf5, 0x7e, 0x99,
		0xa2, 0x47, 0x4e, 0x9d, 0x38, 0x24, 0xc7, 0xae, 0xe3, 0x85, 0x41, 0xf5, 0x67, 0xe7, 0x51, 0x8c,
		0x7a, 0x0e, 0x38, 0xe7, 0xeb, 0xaf, 0x41, 0x19, 0x1b, 0xcf, 0xf1, 0x7b, 0x42, 0xa6, 0xb4, 0xed,
		0xe6, 0xce, 0x8d, 0xe7, 0x31, 0x8f, 0x7f, 0x52, 0x04, 0xb3, 0x99, 0x0e, 0x22, 0x67, 0x45, 0xaf,
		0xd4, 0x85, 0xb2, 0x44, 0x93, 0x00, 0x8b, 0x08, 0xc7, 0xf6, 0xb7, 0xe5, 0x6b, 0x02, 0xb3, 0xe8,
		0xfe, 0x0c, 0x9d, 0x85, 0x9c, 0xb8, 0xb6, 0x82, 0x23, 0xb8, 0xab, 0x27, 0xee, 0x5f, 0x65, 0x38,
		0x07, 0x8b, 0x2d, 0xb9, 0x1e, 0x2a, 0x15, 0x3e, 0x85, 0x81, 0x80, 0x72, 0xa2, 0x3b, 0x6d, 0xd9,
		0x32, 0x81, 0x05, 0x4f, 0x6f, 0xb0, 0xf6, 0xf5, 0xad, 0x28, 0x3e, 0xca, 0x0b, 0x7a, 0xf3, 0x54,
		0x55, 0xe0, 0x3d, 0xa7, 0xb6, 0x83, 0x26, 0xf3, 0xec, 0x83, 0x4a, 0xf3, 0x14, 0x04, 0x8a, 0xc6,
		0xdf, 0x20, 0xd2, 0x85, 0x08, 0x67, 0x3c, 0xab, 0x62, 0xa2, 0xc7, 0xbc, 0x13, 0x1a, 0x53, 0x3e,
		0x0b, 0x66, 0x80, 0x6b, 0x1c, 0x30, 0x66, 0x4b, 0x37, 0x23, 0x31, 0xbd, 0xc4, 0xb0, 0xca, 0xd8,
		0xd1, 0x1e, 0xe7, 0xbb, 0xd9, 0x28, 0x55, 0x48, 0xaa, 0xec, 0x1f, 0x66, 0xe8, 0x21, 0xb3, 0xc8,
		0xa0, 0x47, 0x69, 0x00, 0xc5, 0xe6, 0x88, 0xe8, 0x0c, 0xce, 0x3c, 0x61, 0xd6, 0x9c, 0xbb, 0xa1,
		0x37, 0xc6, 0x60, 0x4f, 0x7a, 0x72, 0xdd, 0x8c, 0x7b, 0x3e, 0x3d, 0x51, 0x29, 0x0d, 0xaa, 0x6a,
		0x59, 0x7b, 0x08, 0x1f, 0x9d, 0x36, 0x33, 0xa3, 0x46, 0x7a, 0x35, 0x61, 0x09, 0xac, 0xa7, 0xdd,
		0x7d, 0x2e, 0x2f, 0xb2, 0xc1, 0xae, 0xb8, 0xe2, 0x0f, 0x48, 0x92, 0xd8, 0xb9, 0xf8, 0xb4, 0x6f,
		0x4e, 0x3c, 0x11, 0xf4, 0xf4, 0x7d, 0x8b, 0x75, 0x7d, 0xfe, 0xfe, 0xa3, 0x89, 0x9c, 0x33, 0x59,
		0x5c, 0x5e, 0xfd, 0xeb, 0xcb, 0xab, 0xe8, 0x41, 0x3e, 0x3a, 0x9a, 0x80, 0x3c, 0x69, 0x35, 0x6e,
		0xb2, 0xb2, 0xad, 0x5c, 0xc4, 0xc8, 0x58, 0x45, 0x5e, 0xf5, 0xf7, 0xb3, 0x06, 0x44, 0xb4, 0x7c,
		0x64, 0x06, 0x8c, 0xdf, 0x80, 0x9f, 0x76, 0x02, 0x5a, 0x2d, 0xb4, 0x46, 0xe0, 0x3d, 0x7c, 0xf6,
		0x2f, 0x34, 0xe7, 0x02, 0x45, 0x7b, 0x02, 0xa4, 0xcf, 0x5d, 0x9d, 0xd5, 0x3c, 0xa5, 0x3a, 0x7c,
		0xa6, 0x29, 0x78, 0x8c, 0x67, 0xca, 0x08, 0xbf, 0xec, 0xca, 0x43, 0xa9, 0x57, 0xad, 0x16, 0xc9,
		0x4e, 0x1c, 0xd8, 0x75, 0xca, 0x10, 0x7d, 0xce, 0x7e, 0x01, 0x18, 0xf0, 0xdf, 0x6b, 0xfe, 0xe5,
		0x1d, 0xdb, 0xd9, 0x91, 0xc2, 0x6e, 0x60, 0xcd, 0x48, 0x58, 0xaa, 0x59, 0x2c, 0x82, 0x00, 0x75,
		0xf2, 0x9f, 0x52, 0x6c, 0x91, 0x7c, 0x6f, 0xe5, 0x40, 0x3e, 0xa7, 0xd4, 0xa5, 0x0c, 0xec, 0x3b,
		0x73, 0x84, 0xde, 0x88, 0x6e, 0x82, 0xd2, 0xeb, 0x4d, 0x4e, 0x42, 0xb5, 0xf2, 0xb1, 0x49, 0xa8,
		0x1e, 0xa7, 0xce, 0x71, 0x44, 0xdc, 0x29, 0x94, 0xcf, 0xc4, 0x4e, 0x1f, 0x91, 0xcb, 0xd4, 0x95,
	}
	rootModulusDevelopment = [513]byte{
		0x00, 0xd0, 0x1f, 0xe1, 0x00, 0xd4, 0x35, 0x56, 0xb2, 0x4b, 0x56, 0xda, 0xe9, 0x71, 0xb5, 0xa5,
		0xd3, 0x84, 0xb9, 0x30, 0x03, 0xbe, 0x1b, 0xbf, 0x28, 0xa2, 0x30, 0x5b, 0x06, 0x06, 0x45, 0x46,
		0x7d, 0x5b, 0x02, 0x51, 0xd2, 0x56, 0x1a, 0x27, 0x4f, 0x9e, 0x9f, 0x9c, 0xec, 0x64, 0x61, 0x50,
		0xab, 0x3d, 0x2a, 0xe3, 0x36, 0x68, 0x66, 0xac, 0xa4, 0xba, 0xe8, 0x1a, 0xe3, 0xd7, 0x9a, 0xa6,
		0xb0, 0x4a, 0x8b, 0xcb, 0xa7, 0xe6, 0xfb, 0x64, 0x89, 0x45, 0xeb, 0xdf, 0xdb, 0x85, 0xba, 0x09,
		0x1f, 0xd7, 0xd1, 0x14, 0xb5, 0xa3, 0xa7, 0x80, 0xe3, 0xa2, 0x2e, 0x6e, 0xcd, 0x87, 0xb5, 0xa4,
		0xc6, 0xf9, 0x10, 0xe4, 0x03, 0x22, 0x08, 0x81, 0x4b, 0x0c, 0xee, 0xa1, 0xa1, 0x7d, 0xf7, 0x39,
		0x69, 0x5f, 0x61, 0x7e, 0xf6, 0x35, 0x28, 0xdb, 0x94, 0x96, 0x37, 0xa0, 0x56, 0x03, 0x7f, 0x7b,
		0x32, 0x41, 0x38, 0x95, 0xc0, 0xa8, 0xf1, 0x98, 0x2e, 0x15, 0x65, 0xe3, 0x8e, 0xed, 0xc2, 0x2e,
		0x59, 0x0e, 0xe2, 0x67, 0x7b, 0x86, 0x09, 0xf4, 0x8c, 0x2e, 0x30, 0x3f, 0xbc, 0x40, 0x5c, 0xac,
		0x18, 0x04, 0x2f, 0x82, 0x20, 0x84, 0xe4, 0x93, 0x68, 0x03, 0xda, 0x7f, 0x41, 0x34, 0x92, 0x48,
		0x56, 0x2b, 0x8e, 0xe1, 0x2f, 0x78, 0xf8, 0x03, 0x24, 0x63, 0x30, 0xbc, 0x7b, 0xe7, 0xee, 0x72,
		0x4a, 0xf4, 0x58, 0xa4, 0x72, 0xe7, 0xab, 0x46, 0xa1, 0xa7, 0xc1, 0x0c, 0x2f, 0x18, 0xfa, 0x07,
		0xc3, 0xdd, 0xd8, 0x98, 0x06, 0xa1, 0x1c, 0x9c, 0xc1, 0x30, 0xb2, 0x47, 0xa3, 0x3c, 0x8d, 0x47,
		0xde, 0x67, 0xf2, 0x9e, 0x55, 0x77, 0xb1, 0x1c, 0x43, 0x49, 0x3d, 0x5b, 0xba, 0x76, 0x34, 0xa7,
		0xe4, 0xe7, 0x15, 0x31, 0xb7, 0xdf, 0x59, 0x81, 0xfe, 0x24, 0xa1, 0x14, 0x55, 0x4c, 0xbd, 0x8f,
		0x00, 0x5c, 0xe1, 0xdb, 0x35, 0x08, 0x5c, 0xcf, 0xc7, 0x78, 0x06, 0xb6, 0xde, 0x25, 0x40, 0x68,
		0xa2, 0x6c, 0xb5, 0x49, 0x2d, 0x45, 0x80, 0x43, 0x8f, 0xe1, 0xe5, 0xa9, 0xed, 0x75, 0xc5, 0xed,
		0x45, 0x1d, 0xce, 0x78, 0x94, 0x39, 0xcc, 0xc3, 0xba, 0x28, 0xa2, 0x31, 0x2a, 0x1b, 0x87, 0x19,
		0xef, 0x0f, 0x73, 0xb7, 0x13, 0x95, 0x0c, 0x02, 0x59, 0x1a, 0x74, 0x62, 0xa6, 0x07, 0xf3, 0x7c,
		0x0a, 0xa7, 0xa1, 0x8f, 0xa9, 0x43, 0xa3, 0x6d, 0x75, 0x2a, 0x5f, 0x41, 0x92, 0xf0, 0x13, 0x61,
		0x00, 0xaa, 0x9c, 0xb4, 0x1b, 0xbe, 0x14, 0xbe, 0xb1, 0xf9, 0xfc, 0x69, 0x2f, 0xdf, 0xa0, 0x94,
		0x46, 0xde, 0x5a, 0x9d, 0xde, 0x2c, 0xa5, 0xf6, 0x8c, 0x1c, 0x0c, 0x21, 0x42, 0x92, 0x87, 0xcb,
		0x2d, 0xaa, 0xa3, 0xd2, 0x63, 0x75, 0x2f, 0x73, 0xe0, 0x9f, 0xaf, 0x44, 0x79, 0xd2, 0x81, 0x74,
		0x29, 0xf6, 0x98, 0x00, 0xaf, 0xde, 0x6b, 0x59, 0x2d, 0xc1, 0x98, 0x82, 0xbd, 0xf5, 0x81, 0xcc,
		0xab, 0xf2, 0xcb, 0x91, 0x02, 0x9e, 0xf3, 0x5c, 0x4c, 0xfd, 0xbb, 0xff, 0x49, 0xc1, 0xfa, 0x1b,
		0x2f, 0xe3, 0x1d, 0xe7, 0xa5, 0x60, 0xec, 0xb4, 0x7e, 0xbc, 0xfe, 0x32, 0x42, 0x5b, 0x95, 0x6f,
		0x81, 0xb6, 0x99, 0x17, 0x48, 0x7e, 0x3b, 0x78, 0x91, 0x51, 0xdb, 0x2e, 0x78, 0xb1, 0xfd, 0x2e,
		0xbe, 0x7e, 0x62, 0x6b, 0x3e, 0xa1, 0x65, 0xb4, 0xfb, 0x00, 0xcc, 0xb7, 0x51, 0xaf, 0x50, 0x73,
		0x29, 0xc4, 0xa3, 0x93, 0x9e, 0xa6, 0xdd, 0x9c, 0x50, 0xa0, 0xe7, 0x38, 0x6b, 0x01, 0x45, 0x79,
		0x6b, 0x41, 0xaf, 0x61, 0xf7, 0x85, 0x55, 0x94, 0x4f, 0x3b, 0xc2, 0x2d, 0xc3, 0xbd, 0x0d, 0x00,
		0xf8, 0x79, 0x8a, 0x42, 0xb1, 0xaa, 0xa0, 0x83, 0x20, 0x65, 0x9a, 0xc7, 0x39, 0x5a, 0xb4, 0xf3,
		0x29,
	}
)
