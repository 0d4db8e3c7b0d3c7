package audit

// GraphQL documents for the cursor-paginated entity types. Both
// connections follow the edges/node/pageInfo shape and accept an $after
// cursor alongside the filter parameters.

const pickupQuery = `query Pickups($params: PickFilterInput, $after: String) {
  pick(params: $params, after: $after) {
    edges {
      node {
        id
        sequenceCode
        status
        requestDate
        serviceDate
        totalVolumes
        totalWeight
        customer { id name document }
        pickAddress { street number city state zipCode }
        requestedBy { id name email }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

const freightQuery = `query Freights($params: FreightFilterInput, $after: String) {
  freight(params: $params, after: $after) {
    edges {
      node {
        id
        sequenceCode
        status
        serviceAt
        serviceDate
        totalValue
        freightType
        branch { id name state }
        payer { id name document }
        sender { id name document }
        recipient { id name document }
        invoices { number orderNumber }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// pickupFilterProbeQuery asks the schema which parameters the pickup
// filter input accepts. Older deployments lack the serviceDate filter, so
// the orchestrator probes before using it.
const pickupFilterProbeQuery = `query PickFilterFields {
  __type(name: "PickFilterInput") {
    inputFields { name }
  }
}`
