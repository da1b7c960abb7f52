package domain

// Storage layout constants.
//
// Every key lives below EncryptionBaseDir. File keys live below KeysBaseDir,
// either directly (system-wide mount points) or under the owner's namespace:
//
//	/{uid}/files_encryption/{module}/{uid}.{keyId}              user key
//	/files_encryption/{module}/{keyId}                          system user key
//	/{uid}/files_encryption/keys/{relative path}/{module}/{keyId}   file key
//	/files_encryption/keys/{relative path}/{module}/{keyId}         file key on a system-wide mount
const (
	// EncryptionBaseDir is the root directory of all key material.
	EncryptionBaseDir = "/files_encryption"

	// KeysBaseDir is the root directory of per-file key material.
	KeysBaseDir = EncryptionBaseDir + "/keys"

	// UserFilesDir is the directory, relative to a user's home, that holds the user's files.
	UserFilesDir = "/files"

	// PartialUploadExtension marks a file whose upload has not finished yet.
	PartialUploadExtension = "part"

	// TransferIDPrefix prefixes the transfer id extension that chunked uploads
	// insert before the partial upload extension (doc.txt.ocTransferId42.part).
	TransferIDPrefix = "ocTransferId"
)
