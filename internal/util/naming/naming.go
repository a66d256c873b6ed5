package naming

import "fmt"

// Naming functions for platform resources.
// Vault policies, auth roles, sync objects, and GitOps applications all
// follow consistent patterns so live state can be matched back to the
// consumer that owns it.

// Release is the Helm release name for a catalog service. Keeping it equal
// to the service key keeps rendered resource names aligned with the
// readiness checks that watch them.
func Release(service string) string {
	return service
}

// DestinationSecret is the cluster Secret a consumer's material syncs into.
func DestinationSecret(consumer string) string {
	return fmt.Sprintf("%s-secrets", consumer)
}

// VaultPolicy is the Vault ACL policy granting one consumer one access level.
func VaultPolicy(consumer, access string) string {
	return fmt.Sprintf("ldp-%s-%s", consumer, access)
}

// VaultRole is the kubernetes auth role a consumer logs in through. One role
// per consumer; it aggregates every policy the consumer's bindings grant.
func VaultRole(consumer string) string {
	return consumer
}

// VaultAuth is the sync operator's login object for one consumer.
func VaultAuth(consumer string) string {
	return fmt.Sprintf("%s-vault-auth", consumer)
}

// Application is the GitOps application name for a platform component.
func Application(platform, component string) string {
	return fmt.Sprintf("%s-%s", platform, component)
}
