package activitypub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FollowerDigest computes the Mastodon collection-synchronization
// digest: the XOR of the SHA-256 hashes of every follower URI in the
// set, hex encoded. XOR is order independent, so both sides can
// compare digests without agreeing on an ordering.
func FollowerDigest(followerURIs []string) string {
	var acc [sha256.Size]byte
	for _, uri := range followerURIs {
		sum := sha256.Sum256([]byte(uri))
		for i := range acc {
			acc[i] ^= sum[i]
		}
	}
	return hex.EncodeToString(acc[:])
}

// collectionSyncHeader builds the Collection-Synchronization header
// value for deliveries to the given domain. The digest covers only the
// followers living on that domain and is recomputed from the live
// follower list on every call; a cached digest would defeat the drift
// detection the header exists for.
func (e *Engine) collectionSyncHeader(destDomain string) (string, error) {
	err, followers := e.store.ReadAllFollowers()
	if err != nil {
		return "", err
	}

	var uris []string
	if followers != nil {
		for _, f := range *followers {
			if f.Domain() == destDomain {
				uris = append(uris, f.ActorURI)
			}
		}
	}

	followersURI := e.conf.ActorURL() + "/followers"
	return fmt.Sprintf(`collectionId="%s", url="%s?domain=%s", digest="%s"`,
		followersURI, followersURI, destDomain, FollowerDigest(uris)), nil
}
