// Package keyfile implements a local signing provider backed by an
// age-encrypted keyfile. The keyfile holds a BIP39 mnemonic; the signing key
// is derived on unlock and held only in locked memory while the provider is
// connected.
package keyfile

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/glyphlabs/glyph/internal/fileutil"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

const (
	// keystoreVersion is the on-disk format version.
	keystoreVersion = 1

	// keystorePermissions is the permission mode for keyfiles.
	keystorePermissions = 0o600
)

// Mnemonic word counts accepted by Create.
const (
	Words12 = 12
	Words24 = 24
)

// keystoreFile is the on-disk keyfile format. Only the mnemonic is secret;
// the address is stored in the clear so identity can be shown without a
// passphrase prompt.
type keystoreFile struct {
	Version    int    `json:"version"`
	Address    string `json:"address"`
	CreatedAt  string `json:"created_at"`
	Ciphertext string `json:"ciphertext"`
}

// signingKey is an unlocked private key. destroy must be called when the
// session ends.
type signingKey struct {
	priv    *ecdsa.PrivateKey
	raw     []byte
	locked  bool
	address string
}

func (k *signingKey) destroy() {
	if k == nil {
		return
	}
	if k.locked {
		munlock(k.raw)
	}
	zeroBytes(k.raw)
	k.priv = nil
}

// Create generates a new mnemonic, derives its address, and writes the
// encrypted keyfile. The mnemonic is returned exactly once so the caller can
// display it for backup; it is never persisted in the clear.
func Create(path, passphrase string, wordCount int) (mnemonic, address string, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return "", "", glypherr.WithDetails(glypherr.ErrKeystoreExists, map[string]string{"path": path})
	}

	var bitSize int
	switch wordCount {
	case Words12:
		bitSize = 128
	case Words24:
		bitSize = 256
	default:
		return "", "", glypherr.Wrap(glypherr.ErrInvalidInput, "word count must be 12 or 24")
	}

	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", "", fmt.Errorf("generating entropy: %w", err)
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", "", fmt.Errorf("generating mnemonic: %w", err)
	}

	address, err = writeKeystore(path, passphrase, mnemonic)
	if err != nil {
		return "", "", err
	}
	return mnemonic, address, nil
}

// Import writes an encrypted keyfile for an existing mnemonic.
func Import(path, passphrase, mnemonic string) (address string, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return "", glypherr.WithDetails(glypherr.ErrKeystoreExists, map[string]string{"path": path})
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", glypherr.Wrap(glypherr.ErrInvalidInput, "invalid mnemonic phrase")
	}
	return writeKeystore(path, passphrase, mnemonic)
}

// Address reads the stored public address without unlocking the keyfile.
func Address(path string) (string, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return "", err
	}
	return ks.Address, nil
}

func writeKeystore(path, passphrase, mnemonic string) (string, error) {
	key, err := deriveKey(mnemonic)
	if err != nil {
		return "", err
	}
	defer key.destroy()

	ciphertext, err := encrypt([]byte(mnemonic), passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypting keyfile: %w", err)
	}

	ks := keystoreFile{
		Version:    keystoreVersion,
		Address:    key.address,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding keyfile: %w", err)
	}

	if err := fileutil.WriteAtomic(path, data, keystorePermissions); err != nil {
		return "", fmt.Errorf("writing keyfile: %w", err)
	}
	return key.address, nil
}

func readKeystore(path string) (*keystoreFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, glypherr.WithDetails(glypherr.ErrKeystoreNotFound, map[string]string{"path": path})
		}
		return nil, fmt.Errorf("reading keyfile: %w", err)
	}

	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, glypherr.Wrap(glypherr.ErrInvalidInput, "keyfile is malformed: %v", err)
	}
	if ks.Version != keystoreVersion {
		return nil, glypherr.Wrap(glypherr.ErrInvalidInput, "unsupported keyfile version %d", ks.Version)
	}
	return &ks, nil
}

// unlock decrypts the keyfile and derives the signing key. A wrong passphrase
// surfaces as ErrDecryptionFailed.
func unlock(path, passphrase string) (*signingKey, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ks.Ciphertext)
	if err != nil {
		return nil, glypherr.Wrap(glypherr.ErrInvalidInput, "keyfile ciphertext is malformed: %v", err)
	}

	mnemonic, err := decrypt(ciphertext, passphrase)
	if err != nil {
		return nil, glypherr.Wrap(glypherr.ErrDecryptionFailed, "unlocking keyfile: %v", err)
	}
	defer zeroBytes(mnemonic)

	key, err := deriveKey(string(mnemonic))
	if err != nil {
		return nil, err
	}

	if key.address != ks.Address {
		key.destroy()
		return nil, glypherr.Wrap(glypherr.ErrDecryptionFailed, "derived address does not match keyfile")
	}
	return key, nil
}

// derivationPath is m/44'/60'/0'/0/0.
var derivationPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild,
	0,
	0,
}

// deriveKey derives the signing key from a mnemonic. The raw key bytes are
// memory-locked when the platform allows it.
func deriveKey(mnemonic string) (*signingKey, error) {
	seed := bip39.NewSeed(mnemonic, "")
	defer zeroBytes(seed)

	node, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}
	for _, index := range derivationPath {
		node, err = node.NewChildKey(index)
		if err != nil {
			return nil, fmt.Errorf("deriving child key: %w", err)
		}
	}

	raw := make([]byte, len(node.Key))
	copy(raw, node.Key)
	zeroBytes(node.Key)

	locked := mlock(raw)

	priv, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		if locked {
			munlock(raw)
		}
		zeroBytes(raw)
		return nil, fmt.Errorf("parsing derived key: %w", err)
	}

	return &signingKey{
		priv:    priv,
		raw:     raw,
		locked:  locked,
		address: ethcrypto.PubkeyToAddress(priv.PublicKey).Hex(),
	}, nil
}
