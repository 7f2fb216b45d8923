package domain

type CreateNetworkInput struct {
	CIDR    string
	Tags    []Tag
	Subnets []SubnetSpec
}
